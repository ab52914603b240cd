// internal/upload/preview.go
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"solar-checker/internal/common/metrics"
	"solar-checker/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var ErrPreviewReleased = errors.New("PREVIEW_ALREADY_RELEASED")

const defaultPreviewDir = "previews"

// PreviewStore writes image previews to an afero filesystem and tracks
// which ones are still held.
type PreviewStore struct {
	fs   afero.Fs
	dir  string
	mu   sync.Mutex
	live map[string]string
}

func NewPreviewStore(fs afero.Fs, dir string) *PreviewStore {
	if dir == "" {
		dir = defaultPreviewDir
	}
	return &PreviewStore{
		fs:   fs,
		dir:  dir,
		live: make(map[string]string),
	}
}

// NewMemoryPreviewStore keeps previews in memory.
func NewMemoryPreviewStore() *PreviewStore {
	return NewPreviewStore(afero.NewMemMapFs(), defaultPreviewDir)
}

// NewDiskPreviewStore writes previews below dir on the local disk.
func NewDiskPreviewStore(dir string) *PreviewStore {
	return NewPreviewStore(afero.NewOsFs(), dir)
}

// Create writes file's bytes under a fresh uuid.
func (s *PreviewStore) Create(file models.File) (models.PreviewHandle, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id+previewExt(file))

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return models.PreviewHandle{}, fmt.Errorf("create preview dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, file.Data, 0o600); err != nil {
		return models.PreviewHandle{}, fmt.Errorf("write preview: %w", err)
	}

	s.mu.Lock()
	s.live[id] = path
	s.mu.Unlock()
	metrics.PreviewsActive.Inc()

	return models.PreviewHandle{ID: id, Path: path}, nil
}

// Release removes the preview. Releasing a handle twice is an error.
func (s *PreviewStore) Release(h models.PreviewHandle) error {
	s.mu.Lock()
	path, ok := s.live[h.ID]
	if ok {
		delete(s.live, h.ID)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPreviewReleased, h.ID)
	}
	metrics.PreviewsActive.Dec()

	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("remove preview %s: %w", h.ID, err)
	}
	return nil
}

// Active is the number of previews not yet released.
func (s *PreviewStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Fs exposes the backing filesystem.
func (s *PreviewStore) Fs() afero.Fs {
	return s.fs
}

func previewExt(file models.File) string {
	if ext := strings.ToLower(filepath.Ext(file.Name)); ext != "" {
		return ext
	}
	switch strings.ToLower(file.ContentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ""
	}
}
