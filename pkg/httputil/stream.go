package httputil

import (
	"errors"
	"net/http"
)

// TextStream writes a chunked text/plain body. Headers are sent with the
// first chunk, so a failure before any output can still be reported as JSON.
type TextStream struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

// NewTextStream wraps w for incremental plain text output
func NewTextStream(w http.ResponseWriter) *TextStream {
	return &TextStream{w: w, rc: http.NewResponseController(w)}
}

// WriteChunk writes one chunk and flushes it to the client
func (s *TextStream) WriteChunk(chunk string) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("X-Content-Type-Options", "nosniff")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := s.w.Write([]byte(chunk)); err != nil {
		return err
	}

	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Started reports whether any chunk was written
func (s *TextStream) Started() bool {
	return s.started
}

// Abort drops the connection so the client sees an incomplete body.
// Must only be called from the handler goroutine.
func (s *TextStream) Abort() {
	panic(http.ErrAbortHandler)
}
