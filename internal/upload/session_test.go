package upload

import (
	"testing"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/validation"
	"solar-checker/internal/documents"
	"solar-checker/internal/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngFile(name string) models.File {
	return models.File{Name: name, ContentType: "image/png", Data: pngHeader}
}

func pdfFile(name string) models.File {
	return models.File{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
}

func newSession(t *testing.T, method string) (*Session, *PreviewStore) {
	t.Helper()
	store := NewMemoryPreviewStore()
	return NewSession(store, documents.RequirementsFor(method), logger.NewTestLogger(t)), store
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	exists, err := afero.DirExists(fs, defaultPreviewDir)
	require.NoError(t, err)
	if !exists {
		return 0
	}
	entries, err := afero.ReadDir(fs, defaultPreviewDir)
	require.NoError(t, err)
	return len(entries)
}

// ==========================
// Attach
// ==========================

func TestSession_AttachImageCreatesPreview(t *testing.T) {
	session, store := newSession(t, "Cash")

	doc, err := session.Attach(documents.ProofOfIdentity, pngFile("id.png"))

	require.NoError(t, err)
	require.NotNil(t, doc.Preview)
	assert.Equal(t, int64(len(pngHeader)), doc.File.Size)
	assert.False(t, doc.CapturedAt.IsZero())
	assert.Equal(t, 1, store.Active())
	assert.Equal(t, 1, countFiles(t, store.Fs()))

	data, err := afero.ReadFile(store.Fs(), doc.Preview.Path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSession_AttachPDFHasNoPreview(t *testing.T) {
	session, store := newSession(t, "Cash")

	doc, err := session.Attach(documents.PurchaseAgreement, pdfFile("invoice.pdf"))

	require.NoError(t, err)
	assert.Nil(t, doc.Preview)
	assert.Zero(t, store.Active())
}

func TestSession_AttachSniffsUndeclaredType(t *testing.T) {
	session, store := newSession(t, "Cash")

	doc, err := session.Attach(documents.ProofOfAddress, models.File{Name: "bill", Data: pngHeader})

	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.File.ContentType)
	assert.NotNil(t, doc.Preview)
	assert.Equal(t, 1, store.Active())
}

func TestSession_AttachRejections(t *testing.T) {
	tests := []struct {
		name   string
		file   models.File
		reason validation.RejectionReason
	}{
		{
			name:   "unsupported type",
			file:   models.File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hi")},
			reason: validation.RejectUnsupportedType,
		},
		{
			name:   "too large",
			file:   models.File{Name: "scan.pdf", ContentType: "application/pdf", Size: validation.MaxUploadSize + 1},
			reason: validation.RejectTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, store := newSession(t, "Cash")
			_, err := session.Attach(documents.ProofOfIdentity, pngFile("id.png"))
			require.NoError(t, err)

			_, err = session.Attach(documents.ProofOfIdentity, tt.file)

			require.Error(t, err)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUploadRejected))
			var stdErr *stderrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, string(tt.reason), stdErr.Metadata["reason"])

			doc, ok := session.Get(documents.ProofOfIdentity)
			require.True(t, ok)
			assert.Equal(t, "id.png", doc.File.Name)
			assert.Equal(t, 1, store.Active())
		})
	}
}

func TestSession_AttachUnknownSlot(t *testing.T) {
	session, _ := newSession(t, "Cash")

	_, err := session.Attach(documents.CreditCheck, pdfFile("auth.pdf"))

	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUnknownSlot))
	assert.Zero(t, session.Len())
}

func TestSession_ReplaceReleasesPriorPreview(t *testing.T) {
	session, store := newSession(t, "Cash")

	first, err := session.Attach(documents.ProofOfIdentity, pngFile("front.png"))
	require.NoError(t, err)
	second, err := session.Attach(documents.ProofOfIdentity, pngFile("back.png"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Preview.ID, second.Preview.ID)
	assert.Equal(t, 1, store.Active())
	assert.Equal(t, 1, countFiles(t, store.Fs()))
	assert.ErrorIs(t, store.Release(*first.Preview), ErrPreviewReleased)

	_, err = session.Attach(documents.ProofOfIdentity, pdfFile("id.pdf"))
	require.NoError(t, err)
	assert.Zero(t, store.Active())
}

// ==========================
// Remove / Close
// ==========================

func TestSession_Remove(t *testing.T) {
	session, store := newSession(t, "Cash")
	_, err := session.Attach(documents.ProofOfIdentity, pngFile("id.png"))
	require.NoError(t, err)

	assert.True(t, session.Remove(documents.ProofOfIdentity))
	assert.False(t, session.Remove(documents.ProofOfIdentity))
	assert.Zero(t, store.Active())
	assert.Zero(t, countFiles(t, store.Fs()))
}

func TestSession_CloseReleasesEverything(t *testing.T) {
	session, store := newSession(t, "Cash")
	_, err := session.Attach(documents.ProofOfIdentity, pngFile("id.png"))
	require.NoError(t, err)
	_, err = session.Attach(documents.ProofOfAddress, pngFile("bill.png"))
	require.NoError(t, err)
	_, err = session.Attach(documents.PurchaseAgreement, pdfFile("invoice.pdf"))
	require.NoError(t, err)
	require.Equal(t, 2, store.Active())

	session.Close()
	session.Close()

	assert.Zero(t, store.Active())
	assert.Zero(t, countFiles(t, store.Fs()))
	assert.Zero(t, session.Len())

	_, err = session.Attach(documents.ProofOfIdentity, pngFile("id.png"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

// ==========================
// Completeness
// ==========================

func TestSession_AllRequiredPresent_Cash(t *testing.T) {
	session, _ := newSession(t, "Cash")
	reqs := documents.RequirementsFor("Cash")

	_, err := session.Attach(documents.ProofOfIdentity, pdfFile("id.pdf"))
	require.NoError(t, err)
	_, err = session.Attach(documents.ProofOfAddress, pdfFile("bill.pdf"))
	require.NoError(t, err)
	assert.False(t, session.AllRequiredPresent(reqs))

	_, err = session.Attach(documents.PurchaseAgreement, pdfFile("invoice.pdf"))
	require.NoError(t, err)
	assert.True(t, session.AllRequiredPresent(reqs))
}

func TestSession_AllRequiredPresent_IgnoresOptional(t *testing.T) {
	session := NewSession(NewMemoryPreviewStore(), nil, logger.NewNoOpLogger())
	reqs := []models.DocumentRequirement{
		{ID: "a", Required: true},
		{ID: "b", Required: false},
	}

	_, err := session.Attach("a", pdfFile("a.pdf"))
	require.NoError(t, err)

	assert.True(t, session.AllRequiredPresent(reqs))
}

func TestSession_Metadata(t *testing.T) {
	session, _ := newSession(t, "Cash")
	_, err := session.Attach(documents.ProofOfIdentity, pngFile("id.png"))
	require.NoError(t, err)
	_, err = session.Attach(documents.ProofOfAddress, pdfFile("bill.pdf"))
	require.NoError(t, err)

	meta := session.Metadata()

	require.Len(t, meta, 2)
	assert.Equal(t, documents.ProofOfAddress, meta[0].DocumentID)
	assert.False(t, meta[0].HasPreview)
	assert.Equal(t, documents.ProofOfIdentity, meta[1].DocumentID)
	assert.True(t, meta[1].HasPreview)
}

func TestPreviewStore_DiskBacked(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskPreviewStore(dir)

	h, err := store.Create(pngFile("roof.png"))
	require.NoError(t, err)
	exists, err := afero.Exists(store.Fs(), h.Path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Release(h))
	exists, err = afero.Exists(store.Fs(), h.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}
