// Package server provides an importable HTTP server for the portfolio fixture
// site. This allows E2E tests to programmatically start/stop the site without
// running main().
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/internal/httpx"
	"github.com/portfolio-qa/portfolio-e2e/pkg/contact"
	"github.com/portfolio-qa/portfolio-e2e/pkg/ingest"
)

// Config holds server configuration options.
type Config struct {
	Addr         string        // Listen address (e.g., "127.0.0.1:4173" or "127.0.0.1:0" for random port)
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
}

// DefaultConfig returns a configuration suitable for testing.
// Binds a random loopback port.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Deps are the handlers mounted by the server. Nil fields get defaults:
// a contact handler that logs instead of mailing, and an ingest handler
// without a token.
type Deps struct {
	Contact *contact.Handler
	Ingest  *ingest.Handler
	Events  *ingest.ReadHandler // nil leaves StoredPath unmounted
	Log     logrus.FieldLogger
}

// Server is an importable HTTP server for the portfolio fixture site.
type Server struct {
	httpServer *http.Server
	contact    *contact.Handler
	log        logrus.FieldLogger
	listener   net.Listener
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if deps.Contact == nil {
		deps.Contact = contact.NewHandler(contact.Config{}, contact.LogMailer{Log: log}, log)
	}
	if deps.Ingest == nil {
		deps.Ingest = ingest.NewHandler("", nil, nil, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(HTMLPage))
	})
	r.Handle(contact.Path, deps.Contact)
	r.Handle(ingest.EventsPath, deps.Ingest)
	r.Handle(ingest.HealthPath, deps.Ingest)
	if deps.Events != nil {
		r.Handle(ingest.StoredPath, deps.Events)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "Not found", nil)
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		contact:    deps.Contact,
		log:        log,
	}, nil
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// The page's own origin is added to the contact allow-list.
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	s.contact.AllowOrigin("http://" + s.addr)
	if _, port, err := net.SplitHostPort(s.addr); err == nil {
		s.contact.AllowOrigin("http://localhost:" + port)
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("fixture server stopped")
		}
	}()

	return s.addr, nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start),
			}).Debug("request")
		})
	}
}
