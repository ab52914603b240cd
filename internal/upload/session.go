// internal/upload/session.go
package upload

import (
	"errors"
	"sort"
	"sync"
	"time"

	stderrors "solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/metrics"
	"solar-checker/internal/common/validation"
	"solar-checker/internal/models"
)

var ErrSessionClosed = errors.New("UPLOAD_SESSION_CLOSED")

// Session holds at most one document per requirement id and owns the
// previews of those documents.
type Session struct {
	mu      sync.Mutex
	store   *PreviewStore
	slots   map[string]bool
	docs    map[string]models.UploadedDocument
	closed  bool
	logger  logger.Logger
	nowFunc func() time.Time
}

// NewSession opens a session for the given requirements. An empty list
// accepts any document id.
func NewSession(store *PreviewStore, requirements []models.DocumentRequirement, log logger.Logger) *Session {
	slots := make(map[string]bool, len(requirements))
	for _, r := range requirements {
		slots[r.ID] = true
	}
	return &Session{
		store:   store,
		slots:   slots,
		docs:    make(map[string]models.UploadedDocument),
		logger:  logger.ForComponent(log, "upload"),
		nowFunc: time.Now,
	}
}

// Attach validates file and stores it under id, replacing any previous
// document. A rejected file leaves the session unchanged.
func (s *Session) Attach(id string, file models.File) (models.UploadedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.UploadedDocument{}, ErrSessionClosed
	}
	if len(s.slots) > 0 && !s.slots[id] {
		return models.UploadedDocument{}, stderrors.NewUnknownSlotError(id)
	}

	if file.Size == 0 {
		file.Size = int64(len(file.Data))
	}
	if err := validation.CheckUpload(file.Name, file.ContentType, file.Size, file.Data); err != nil {
		var rejection *validation.UploadRejection
		reason := "Unknown"
		if errors.As(err, &rejection) {
			reason = string(rejection.Reason)
		}
		metrics.UploadRejections.WithLabelValues(reason).Inc()
		s.logger.Info("upload rejected", map[string]interface{}{
			"documentId": id,
			"reason":     reason,
			"size":       file.Size,
		})
		return models.UploadedDocument{}, stderrors.NewUploadRejectedError(id, reason)
	}
	file.ContentType = validation.NormalizeContentType(file.ContentType, file.Data)

	doc := models.UploadedDocument{
		DocumentID: id,
		File:       file,
		CapturedAt: s.nowFunc().UTC(),
	}
	if file.IsImage() {
		handle, err := s.store.Create(file)
		if err != nil {
			return models.UploadedDocument{}, err
		}
		doc.Preview = &handle
	}

	if prior, ok := s.docs[id]; ok {
		s.release(prior)
	}
	s.docs[id] = doc

	s.logger.Debug("document attached", map[string]interface{}{
		"documentId": id,
		"size":       file.Size,
		"preview":    doc.Preview != nil,
	})
	return doc, nil
}

// Remove drops the document under id. It reports whether one was present.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false
	}
	s.release(doc)
	delete(s.docs, id)
	return true
}

func (s *Session) Get(id string) (models.UploadedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// AllRequiredPresent reports whether every required requirement has a document.
func (s *Session) AllRequiredPresent(requirements []models.DocumentRequirement) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range requirements {
		if !r.Required {
			continue
		}
		if _, ok := s.docs[r.ID]; !ok {
			return false
		}
	}
	return true
}

// Metadata lists the held documents without their bytes, ordered by id.
func (s *Session) Metadata() []models.DocumentMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.DocumentMetadata, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Close releases every preview. Further attaches fail with ErrSessionClosed.
// Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, doc := range s.docs {
		s.release(doc)
		delete(s.docs, id)
	}
}

func (s *Session) release(doc models.UploadedDocument) {
	if doc.Preview == nil {
		return
	}
	if err := s.store.Release(*doc.Preview); err != nil {
		s.logger.Warn("preview release failed", map[string]interface{}{
			"documentId": doc.DocumentID,
			"previewId":  doc.Preview.ID,
			"error":      err.Error(),
		})
	}
}
