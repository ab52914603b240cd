// Package validation holds the pure input predicates of the wizard.
package validation

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest accepted document, 10 MiB.
const MaxUploadSize int64 = 10 * 1024 * 1024

var acceptedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

var acceptedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsAcceptablePostalCode is true iff s is exactly 5 or exactly 6 ASCII digits.
func IsAcceptablePostalCode(s string) bool {
	if len(s) != 5 && len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RejectionReason says why an upload was refused.
type RejectionReason string

const (
	RejectUnsupportedType RejectionReason = "UnsupportedType"
	RejectTooLarge        RejectionReason = "TooLarge"
)

// UploadRejection is returned by CheckUpload for a refused file.
type UploadRejection struct {
	Reason      RejectionReason
	ContentType string
	Size        int64
}

func (r *UploadRejection) Error() string {
	switch r.Reason {
	case RejectTooLarge:
		return fmt.Sprintf("file too large: %d bytes exceeds %d", r.Size, MaxUploadSize)
	default:
		return fmt.Sprintf("unsupported file type %q", r.ContentType)
	}
}

// CheckUpload returns nil when the file may be attached, otherwise an
// *UploadRejection. Type is checked before size.
func CheckUpload(name, contentType string, size int64, data []byte) error {
	ct := NormalizeContentType(contentType, data)
	if !acceptedContentTypes[ct] {
		return &UploadRejection{Reason: RejectUnsupportedType, ContentType: ct, Size: size}
	}
	if size > MaxUploadSize {
		return &UploadRejection{Reason: RejectTooLarge, ContentType: ct, Size: size}
	}
	return nil
}

// NormalizeContentType lowercases a declared MIME type, dropping parameters.
// When nothing was declared the type is sniffed from the content.
func NormalizeContentType(contentType string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" && len(data) > 0 {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// IsAcceptedExtension mirrors the file picker filter.
func IsAcceptedExtension(name string) bool {
	return acceptedExtensions[strings.ToLower(filepath.Ext(name))]
}
