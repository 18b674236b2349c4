package extraction

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/morich/attract-backend/internal/attract/domain"
)

// DefaultMaxPDFBytes matches the limit shown next to the upload field
const DefaultMaxPDFBytes = 5 << 20

// PDF extracts text from PDF documents page by page
type PDF struct {
	maxBytes int64
}

// NewPDF creates a PDF extractor. A non-positive limit uses DefaultMaxPDFBytes.
func NewPDF(maxBytes int64) *PDF {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPDFBytes
	}
	return &PDF{maxBytes: maxBytes}
}

// MaxBytes returns the upload limit
func (p *PDF) MaxBytes() int64 {
	return p.maxBytes
}

// IsPDF reports whether the declared type and the content both say PDF.
// Browsers that send no type or a generic binary type are judged on content.
func IsPDF(doc Document) bool {
	declared := strings.TrimSpace(doc.ContentType)
	if declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return false
		}
		if mediaType != "application/pdf" && mediaType != "application/octet-stream" {
			return false
		}
	}
	return http.DetectContentType(doc.Data) == "application/pdf"
}

// Extract returns the text of every page joined with newlines. Non-PDF input
// is rejected before the PDF reader sees it.
func (p *PDF) Extract(ctx context.Context, doc Document) (result *domain.ExtractedDocument, err error) {
	if !IsPDF(doc) {
		return nil, ErrNotPDF
	}
	if int64(len(doc.Data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		pages = append(pages, text)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return nil, ErrEmptyContent
	}

	return &domain.ExtractedDocument{
		Source: doc.Filename,
		Text:   text,
		Pages:  numPages,
	}, nil
}
