// Package server exposes an App over a JSON HTTP API.
//
// One mutex serializes every handler that touches the App, standing in for
// the terminal UI's event loop. Hover lookups run outside the lock and
// re-acquire it to resolve.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/internal/metrics"
	"github.com/matzehuels/mapstyle/pkg/buildinfo"
	"github.com/matzehuels/mapstyle/pkg/session"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// SessionCookie carries the viewer's session ID.
const SessionCookie = "mapstyle_session"

// Locator maps a client address to a start location.
// *viewport.Locator satisfies it.
type Locator interface {
	Locate(ip net.IP) (viewport.Location, bool)
}

// Config configures a Server.
type Config struct {
	Addr       string
	Sessions   session.Store
	SessionTTL time.Duration
	Locator    Locator
	Metrics    *metrics.Metrics
	Logger     *log.Logger
}

// Server serves the API.
type Server struct {
	mu  sync.Mutex
	app *app.App

	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server around a started App.
func New(a *app.App, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	s := &Server{app: a, cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
	})
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/scene", s.handleScene)
		r.Get("/styles", s.handleStyles)
		r.Get("/styles/graph", s.handleStyleGraph)
		r.Put("/style", s.handleApplyStyle)
		r.Get("/layers", s.handleLayers)
		r.Get("/cameras", s.handleCameras)
		r.Get("/light", s.handleLight)
		r.Put("/light/{param}", s.handleSetLight)
		r.Get("/panel", s.handlePanel)
		r.Put("/panel/*", s.handleSetController)
		r.Post("/panel/*", s.handlePress)
		r.Get("/hover", s.handleHover)
		r.Put("/panning", s.handlePanning)
		r.Get("/view", s.handleGetView)
		r.Put("/view", s.handlePutView)
		r.Put("/size", s.handleSize)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
