// Package catalogd implements the cone-search catalog service consumed by
// the service catalog backend. It doubles as an offline fixture server in
// tests.
package catalogd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/models"
)

// Handler serves cone searches over a catalog backend.
type Handler struct {
	backend catalog.Backend
	ready   func(context.Context) error
}

// NewHandler creates a Handler. ready, if non-nil, is probed by the
// readiness endpoint (the SQLite store's Ping, typically).
func NewHandler(backend catalog.Backend, ready func(context.Context) error) *Handler {
	return &Handler{backend: backend, ready: ready}
}

// NewRouter mounts the service routes. Middleware is the caller's concern
// so tests can exercise the bare routes.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Get("/v1/cone", h.ConeSearch)
	return r
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. It reports 503 while the backing store
// is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ConeSearch handles GET /v1/cone.
//
//	@Summary	Sources of one kind within a cone
//	@Produce	json
//	@Param		kind	query	string	true	"Source kind"	Enums(point, extended)
//	@Param		ra		query	number	true	"Center RA, degrees"
//	@Param		dec		query	number	true	"Center Dec, degrees"
//	@Param		radius	query	number	true	"Cone radius, degrees"
//	@Success	200	{array}	models.Source
//	@Router		/v1/cone [get]
func (h *Handler) ConeSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := models.SourceKind(q.Get("kind"))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("kind must be point or extended"))
		return
	}
	ra, err := strconv.ParseFloat(q.Get("ra"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("ra must be a number"))
		return
	}
	dec, err := strconv.ParseFloat(q.Get("dec"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("dec must be a number"))
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius"), 64)
	if err != nil || radius <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("radius must be a positive number"))
		return
	}

	sources, err := h.backend.Query(r.Context(), kind, catalog.Cone{RA: ra, Dec: dec, Radius: radius})
	if err != nil {
		slog.Error("cone search failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		if errors.Is(err, apperr.ErrCatalogUnavailable) {
			writeJSON(w, http.StatusBadGateway, errorBody("catalog source unavailable"))
		} else {
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if sources == nil {
		sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}
