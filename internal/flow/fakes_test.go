package flow

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/geocode"
	"solar-checker/internal/models"
	"solar-checker/internal/upload"

	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeReference struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	credit  map[string]*models.CreditReference
	calls   map[string]int
	unknown map[string]bool
}

func newFakeReference() *fakeReference {
	return &fakeReference{
		gates:   make(map[string]chan struct{}),
		credit:  make(map[string]*models.CreditReference),
		calls:   make(map[string]int),
		unknown: make(map[string]bool),
	}
}

// gate makes lookups for zip block until the returned func is called.
func (f *fakeReference) gate(zip string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[zip] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeReference) LocationData(ctx context.Context, zip string) (*models.LocationData, error) {
	f.mu.Lock()
	f.calls["location:"+zip]++
	gate := f.gates[zip]
	unknown := f.unknown[zip]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if unknown {
		return nil, stderrors.NewUpstreamStatusError("reference", http.StatusNotFound, "No data available")
	}
	return &models.LocationData{ZipCode: zip, City: "City " + zip, State: "CA"}, nil
}

func (f *fakeReference) CreditReference(ctx context.Context, zip string) (*models.CreditReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["credit:"+zip]++
	return f.credit[zip], nil
}

func (f *fakeReference) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeResolver struct {
	mu     sync.Mutex
	record models.PostalCodeRecord
	err    error
	gate   chan struct{}
}

func (f *fakeResolver) Detect(ctx context.Context, _ geocode.Locator) (models.PostalCodeRecord, error) {
	f.mu.Lock()
	gate, record, err := f.gate, f.record, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.PostalCodeRecord{}, ctx.Err()
		}
	}
	return record, err
}

type fakeGateway struct {
	mu     sync.Mutex
	result models.QualificationResult
	gate   chan struct{}
	calls  int
	last   models.WizardAnswers
}

func (f *fakeGateway) Submit(ctx context.Context, answers models.WizardAnswers) models.QualificationResult {
	f.mu.Lock()
	f.calls++
	f.last = answers
	gate, result := f.gate, f.result
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.NotQualified("cancelled")
		}
	}
	return result
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	apps []models.ApplicationSubmission
}

func (f *fakePublisher) Publish(_ context.Context, app models.ApplicationSubmission) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, app)
	if f.err != nil {
		return "", f.err
	}
	return "instance-" + app.ApplicationID[:8], nil
}

func (f *fakePublisher) published() []models.ApplicationSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ApplicationSubmission(nil), f.apps...)
}

var errBrokerDown = errors.New("broker unavailable")

// ==========================
// Harness
// ==========================

type harness struct {
	ctrl      *Controller
	reference *fakeReference
	resolver  *fakeResolver
	gateway   *fakeGateway
	publisher *fakePublisher
	previews  *upload.PreviewStore
}

func approved() models.QualificationResult {
	size := 7.2
	return models.QualificationResult{Status: models.StatusApproved, SystemSizeKW: &size, Explanation: "Great fit"}
}

func newHarness(t testing.TB, delay time.Duration) *harness {
	t.Helper()
	h := &harness{
		reference: newFakeReference(),
		resolver:  &fakeResolver{record: models.PostalCodeRecord{Code: "90210", Format: models.FiveDigitZip}},
		gateway:   &fakeGateway{result: approved()},
		publisher: &fakePublisher{},
		previews:  upload.NewMemoryPreviewStore(),
	}
	cfg := DefaultConfig()
	cfg.LoadingDelay = delay

	ctrl, err := New(Dependencies{
		Resolver:      h.resolver,
		Gateway:       h.gateway,
		Reference:     h.reference,
		Previews:      h.previews,
		Publisher:     h.publisher,
		Logger:        logger.NewNoOpLogger(),
		Observability: observability.NewNoop(),
	}, cfg)
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) idle(t testing.TB) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.ctrl.WaitIdle(ctx))
	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	return snap
}

func (h *harness) must(t testing.TB) func(Snapshot, error) Snapshot {
	t.Helper()
	return func(snap Snapshot, err error) Snapshot {
		t.Helper()
		require.NoError(t, err)
		return snap
	}
}

// completeStages answers all four stages and waits for Results.
func (h *harness) completeStages(t testing.TB) Snapshot {
	t.Helper()
	h.must(t)(h.ctrl.SetPostalInput("90210"))
	h.idle(t)
	h.must(t)(h.ctrl.Submit(PostalAnswer{Code: "90210"}))
	h.must(t)(h.ctrl.Submit(BillAnswer{Amount: 180}))
	h.must(t)(h.ctrl.Submit(CreditAnswer{Label: "Good"}))
	h.must(t)(h.ctrl.Submit(RoofAnswer{Size: models.RoofFromCategory(models.RoofLarge)}))
	return h.idle(t)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngFile(name string) models.File {
	return models.File{Name: name, ContentType: "image/png", Data: pngHeader}
}

func pdfFile(name string) models.File {
	return models.File{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
}
