package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/morich/attract-backend/internal/attract/extraction"
	"github.com/morich/attract-backend/internal/attract/service"
	"github.com/morich/attract-backend/pkg/errors"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/logger"
)

// multipartOverhead leaves room for boundaries and headers around the file
const multipartOverhead = 1 << 20

// DocumentHandler turns uploaded PDFs and job posting URLs into text
type DocumentHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *service.Service, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		logger:  log,
	}
}

// FetchRequest is the body of a URL extraction
type FetchRequest struct {
	URL string `json:"url" validate:"notblank"`
}

// Extract handles POST /api/v1/documents/extract
// Accepts multipart form with:
// - file: the PDF to read
func (h *DocumentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.service.MaxDocumentBytes()
	limit := maxBytes + multipartOverhead

	// Limit request size and keep the whole upload in memory
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.ErrorLocalized(w, r, errors.PayloadTooLarge("PDF too large").
				WithKey("documents.pdf_too_large", map[string]string{"limit": strconv.FormatInt(maxBytes>>20, 10)}))
			return
		}
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("missing file").WithKey("documents.missing_file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read uploaded file")
		httputil.ErrorLocalized(w, r, errors.Internal("failed to read uploaded file"))
		return
	}

	doc, err := h.service.ExtractDocument(r.Context(), extraction.Document{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// Fetch handles POST /api/v1/documents/fetch
func (h *DocumentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	doc, err := h.service.FetchDocument(r.Context(), req.URL)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}
