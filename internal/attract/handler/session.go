package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/morich/attract-backend/internal/attract/domain"
	"github.com/morich/attract-backend/internal/attract/service"
	"github.com/morich/attract-backend/pkg/httputil"
	"github.com/morich/attract-backend/pkg/i18n"
	"github.com/morich/attract-backend/pkg/logger"
)

// SessionHandler handles generation sessions
type SessionHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc *service.Service, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap := h.service.CreateSession()
	httputil.Created(w, localize(r, snap))
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, localize(r, snap))
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(chi.URLParam(r, "id")); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// Generate handles POST /api/v1/sessions/{id}/generate.
// Returns 202 with the generating snapshot; poll Get for the result.
func (h *SessionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.GenerationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	snap, err := h.service.StartGeneration(r.Context(), id, req)
	if err != nil {
		if snap.SessionID != "" {
			httputil.ErrorLocalizedWithData(w, r, err, localize(r, snap))
			return
		}
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.Debug().
		Str("session_id", id).
		Uint64("generation", snap.Generation).
		Msg("session generation accepted")

	httputil.JSON(w, http.StatusAccepted, localize(r, snap))
}

// localize translates the recorded failure into the request locale
func localize(r *http.Request, snap domain.Snapshot) domain.Snapshot {
	if snap.Error != nil && snap.Error.MessageKey != "" {
		snap.Error.Message = i18n.TFromContext(r.Context(), snap.Error.MessageKey, snap.Error.Params)
	}
	return snap
}
