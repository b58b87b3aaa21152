// Package web exposes the calendar registry over HTTP. It is a thin
// adapter: every handler parses arguments, takes the engine lock, calls
// one registry or store operation and maps the typed error to a status.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"calhub/internal/config"
	appLog "calhub/internal/log"
	"calhub/internal/model"
	"calhub/internal/registry"
)

// Server wires the registry behind a chi router. The engine itself is
// single-threaded; the server serializes access with one lock, which is
// sufficient at the engine's O(n) operation costs.
type Server struct {
	cfg *config.Config
	reg *registry.Registry

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewServer constructs a Server around an existing registry.
func NewServer(cfg *config.Config, reg *registry.Registry) *Server {
	s := &Server{cfg: cfg, reg: reg}
	if cfg.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return s
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/calendars", s.createCalendar)
		r.Get("/calendars", s.listCalendars)
		r.Post("/calendars/{name}/use", s.useCalendar)
		r.Post("/calendars/{name}/rename", s.renameCalendar)
		r.Post("/calendars/{name}/timezone", s.changeTimezone)

		r.Post("/events", s.createEvent)
		r.Post("/events/series", s.createSeries)
		r.Get("/events", s.queryEvents)
		r.Get("/busy", s.busy)
		r.Post("/events/edit", s.editEvents)

		r.Get("/export", s.exportICS)
		r.Post("/import", s.importICS)

		r.Post("/copy/event", s.copyEvent)
		r.Post("/copy/day", s.copyDay)
		r.Post("/copy/range", s.copyRange)
	})

	h := http.Handler(r)
	if s.basicAuthEnabled() {
		h = s.basicAuth(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuth wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calhub", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appLog.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// ─── Helper utilities ────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidProperty),
		errors.Is(err, model.ErrInvalidTimezone):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrDuplicateName),
		errors.Is(err, model.ErrAmbiguousMatch):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
