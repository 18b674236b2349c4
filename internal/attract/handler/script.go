package handler

import (
	"net/http"

	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/service"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/logger"
)

// ScriptHandler handles one-shot script generation
type ScriptHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewScriptHandler creates a new script handler
func NewScriptHandler(svc *service.Service, log *logger.Logger) *ScriptHandler {
	return &ScriptHandler{
		service: svc,
		logger:  log,
	}
}

// Stream handles POST /api/generate.
// The script is streamed as plain text while the model writes it. A failure
// before the first chunk is answered with a JSON error; a failure after it
// drops the connection so the client sees an incomplete body.
func (h *ScriptHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	stream := httputil.NewTextStream(w)
	err := h.service.Stream(r.Context(), req, stream.WriteChunk)
	if err == nil {
		return
	}

	if !stream.Started() {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.WithRequestID(httputil.GetRequestID(r.Context())).
		Warn().Err(err).
		Msg("stream failed after first chunk, aborting response")
	stream.Abort()
}

// Generate handles POST /api/v1/scripts.
// It waits for the complete script and returns the parsed sections. When
// parsing fails the raw text is returned next to the error.
func (h *ScriptHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	script, err := h.service.Generate(r.Context(), req)
	if err != nil {
		if script != nil {
			httputil.ErrorLocalizedWithData(w, r, err, script)
			return
		}
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, script)
}
