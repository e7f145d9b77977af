// Package web provides the HTTP front end: upload a table, preview it, and
// ask questions about it.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// Answerer runs one prompt against a table.
type Answerer interface {
	Answer(ctx context.Context, t *table.Table, prompt string) (*answer.Response, error)
}

// Options configures the server.
type Options struct {
	PreviewRows    int
	MaxUploadBytes int64
	ChartDir       string
	CacheTTL       time.Duration
	// RequestTimeout bounds every request, including the model call.
	RequestTimeout time.Duration
}

func (o *Options) defaults() {
	if o.PreviewRows <= 0 {
		o.PreviewRows = table.DefaultPreviewRows
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 200 << 20
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Minute
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 3 * time.Minute
	}
}

// Server is the HTTP server for the data chat UI.
type Server struct {
	answerer Answerer
	opts     Options
	tables   *cache.Cache
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(a Answerer, opts Options) *Server {
	opts.defaults()
	s := &Server{
		answerer: a,
		opts:     opts,
		tables:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/upload", s.handleUpload)
	s.router.Get("/datasets/{id}", s.handleDataset)
	s.router.Post("/datasets/{id}/ask", s.handleAsk)
	s.router.Get("/charts/{file}", s.handleChart)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/datasets/{id}/ask", s.handleAPIAsk)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// inline styles and the spinner script live in the page
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONStatus(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
