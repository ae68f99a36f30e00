package picker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/vlypick/kit"
	"github.com/hazyhaar/vlypick/shield"
	"github.com/hazyhaar/vlypick/picker/message"
)

const (
	// DefaultAwaitTimeout bounds a selection wait when no timeout is given.
	DefaultAwaitTimeout = 60 * time.Second
	// MaxAwaitTimeout caps any requested selection wait.
	MaxAwaitTimeout = time.Hour
)

// awaitTimeout converts a requested wait in seconds, 0 meaning the default.
func awaitTimeout(seconds int) time.Duration {
	switch {
	case seconds <= 0:
		return DefaultAwaitTimeout
	case seconds >= int(MaxAwaitTimeout/time.Second):
		return MaxAwaitTimeout
	}
	return time.Duration(seconds) * time.Second
}

// PageStatus describes one session over the control API.
type PageStatus struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Mode          string `json:"mode"`
	Toolbar       string `json:"toolbar"`
	HostConnected bool   `json:"host_connected"`
}

func statusOf(s *Session) PageStatus {
	return PageStatus{
		ID:            s.ID(),
		URL:           s.URL(),
		Mode:          s.Mode().String(),
		Toolbar:       s.Toolbar().ID(),
		HostConnected: s.HostConnected(),
	}
}

// NewHandler returns the HTTP control surface over reg:
//
//	GET  /health
//	GET  /pages
//	GET  /pages/{id}/ws               websocket host channel
//	POST /pages/{id}/selection-mode   {"enabled": bool}
//	GET  /pages/{id}/selection        wait for the next selection (?timeout=30s)
func NewHandler(reg *Registry, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{reg: reg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.tag)
	for _, mw := range shield.APIStack(logger) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pages": len(reg.List())})
	})
	r.Get("/pages", func(w http.ResponseWriter, _ *http.Request) {
		list := []PageStatus{}
		for _, s := range reg.List() {
			list = append(list, statusOf(s))
		}
		writeJSON(w, http.StatusOK, list)
	})
	r.Route("/pages/{id}", func(r chi.Router) {
		r.Get("/ws", h.websocket)
		r.Post("/selection-mode", h.selectionMode)
		r.Get("/selection", h.awaitSelection)
	})
	return r
}

type handler struct {
	reg *Registry
}

func (h *handler) tag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) *Session {
	s, err := h.reg.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil
	}
	return s
}

func (h *handler) websocket(w http.ResponseWriter, r *http.Request) {
	if s := h.session(w, r); s != nil {
		s.WebSocket().ServeHTTP(w, r)
	}
}

func (h *handler) selectionMode(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	var req struct {
		Type    string `json:"type"`
		Enabled *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Type != "" && req.Type != message.TypeSetSelectionMode {
		writeError(w, http.StatusBadRequest, errors.New("unexpected message type "+strconv.Quote(req.Type)))
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}
	if err := s.SetSelectionMode(r.Context(), *req.Enabled); err != nil {
		shield.GetLogger(r.Context()).Warn("picker: set selection mode", "page", s.ID(), "error", err)
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(s))
}

func (h *handler) awaitSelection(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	timeout := DefaultAwaitTimeout
	if v := r.URL.Query().Get("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("invalid timeout"))
			return
		}
		timeout = min(d, MaxAwaitTimeout)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	sel, err := s.Await(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, errors.New("no selection before timeout"))
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, sel)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
