// internal/models/document.go
package models

import (
	"strings"
	"time"
)

// File is an upload candidate as handed over by the front end.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// IsImage reports whether the file should get a preview.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// DocumentRequirement is one document slot for a financing method.
type DocumentRequirement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PreviewHandle identifies a preview resource held by an upload session.
type PreviewHandle struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// UploadedDocument is the content of one occupied document slot.
type UploadedDocument struct {
	DocumentID string         `json:"documentId"`
	File       File           `json:"file"`
	Preview    *PreviewHandle `json:"preview,omitempty"`
	CapturedAt time.Time      `json:"capturedAt"`
}

// DocumentMetadata is the byte-free description of an uploaded document.
type DocumentMetadata struct {
	DocumentID  string    `json:"documentId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	HasPreview  bool      `json:"hasPreview"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// Metadata strips the file contents from an uploaded document.
func (d UploadedDocument) Metadata() DocumentMetadata {
	return DocumentMetadata{
		DocumentID:  d.DocumentID,
		FileName:    d.File.Name,
		ContentType: d.File.ContentType,
		Size:        d.File.Size,
		HasPreview:  d.Preview != nil,
		CapturedAt:  d.CapturedAt,
	}
}
