// Package web serves the companion's status and accepts remote commands.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/go-mood-companion/internal/controller"
	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/logx"
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8080"

// Remote is the coordinator surface the server drives.
// Implemented by *controller.Coordinator.
type Remote interface {
	Status() controller.Status
	Submit(ctx context.Context, a controller.Action, trigger string) error
}

// HistoryLister lists recorded cycles. Implemented by *db.CycleRepository.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]db.Cycle, error)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr   string
	Remote Remote
	// History is optional; without it /api/history answers 503.
	History HistoryLister
}

// Server is the status HTTP server.
type Server struct {
	router   chi.Router
	server   *http.Server
	pages    *Templates
	handlers *Handlers
}

// NewServer creates a new status server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Remote == nil {
		return nil, errors.New("web: remote is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	pages, err := NewTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		pages:    pages,
		handlers: NewHandlers(cfg.Remote, cfg.History, pages),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handlers.Home)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handlers.Status)
		r.Post("/mood", s.handlers.ChangeMood)
		r.Post("/playback/{action}", s.handlers.Playback)
		r.Post("/display/info", s.handlers.ToggleInfo)
		r.Get("/history", s.handlers.History)
	})
}

// requestLogger logs each request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logx.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.server.Addr).Msg("Starting status server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logx.Info().Msg("Shutting down status server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
