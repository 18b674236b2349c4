package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/morich/attract-backend/pkg/errors"
	"github.com/morich/attract-backend/pkg/httputil"
)

// Mount registers every script, session and document route on r
func Mount(r chi.Router, scripts *ScriptHandler, sessions *SessionHandler, documents *DocumentHandler) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.ErrorLocalized(w, r, errors.NotFound("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.ErrorLocalized(w, r, errors.MethodNotAllowed())
	})

	r.Post("/api/generate", scripts.Stream)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scripts", scripts.Generate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.Create)
			r.Get("/{id}", sessions.Get)
			r.Delete("/{id}", sessions.Delete)
			r.Post("/{id}/generate", sessions.Generate)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/extract", documents.Extract)
			r.Post("/fetch", documents.Fetch)
		})
	})
}
