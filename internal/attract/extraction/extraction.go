// Package extraction pulls plain text out of uploaded PDFs and job posting pages.
package extraction

import "errors"

var (
	ErrNotPDF       = errors.New("extraction: only PDF files are accepted")
	ErrTooLarge     = errors.New("extraction: document too large")
	ErrUnreadable   = errors.New("extraction: document could not be read")
	ErrInvalidURL   = errors.New("extraction: invalid URL")
	ErrFetch        = errors.New("extraction: fetching URL failed")
	ErrUnsupported  = errors.New("extraction: unsupported content type")
	ErrEmptyContent = errors.New("extraction: no text found")
)

// Document is an uploaded file held in memory
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}
