// Package server is the development server behind `quire serve`. It serves
// the generated output directory, injects a live reload script into HTML
// responses and shows an error overlay while the last build has failures.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/websocket"
)

// Routes reserved by the development server. They live under a prefix no
// generated page can use.
const (
	ReloadPath = "/_quire/ws"
	HealthPath = "/_quire/health"
)

// Options configures a Server.
type Options struct {
	Host           string
	Port           int
	Root           string
	LiveReload     bool
	AllowedOrigins []string
}

// Server serves a generated site.
type Server struct {
	opts   Options
	router chi.Router
	hub    *websocket.Manager
	logger logging.Logger

	stateMutex sync.RWMutex
	buildID    string
	failures   []errors.PageFailure

	serverMutex sync.Mutex
	httpServer  *http.Server
}

// New creates a Server for opts. The reload hub is started only when live
// reload is enabled.
func New(opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		opts:   opts,
		logger: logger.WithComponent("server"),
	}
	if opts.LiveReload {
		s.hub = websocket.NewManager(s.allowedOrigins(), logger)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) allowedOrigins() []string {
	port := strconv.Itoa(s.opts.Port)
	origins := append([]string{}, s.opts.AllowedOrigins...)
	origins = append(origins,
		net.JoinHostPort(s.opts.Host, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
	)
	return origins
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get(HealthPath, s.handleHealth)
	if s.hub != nil {
		r.Get(ReloadPath, s.hub.HandleWebSocket)
	}
	r.Get("/*", s.handleStatic)
	r.Head("/*", s.handleStatic)

	return r
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Address returns the host:port the server listens on.
func (s *Server) Address() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// BuildFinished records the outcome of a generation run and tells connected
// browsers to reload. A site level error is shown in the overlay like a page
// failure.
func (s *Server) BuildFinished(report *build.Report, err error) {
	var failures []errors.PageFailure
	var buildID string
	if report != nil {
		buildID = report.BuildID
		failures = append(failures, report.Failures...)
	}
	if err != nil {
		failures = append(failures, errors.PageFailure{Page: "site", Err: err})
	}

	s.stateMutex.Lock()
	s.buildID = buildID
	s.failures = failures
	s.stateMutex.Unlock()

	if s.hub == nil {
		return
	}
	msgType := websocket.MessageReload
	if len(failures) > 0 {
		msgType = websocket.MessageFailed
	}
	s.hub.Broadcast(websocket.Message{
		Type:     msgType,
		BuildID:  buildID,
		Failures: len(failures),
	})
}

func (s *Server) state() (string, []errors.PageFailure) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.buildID, s.failures
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Address(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info(ctx, "Serving site", "address", "http://"+s.Address(), "root", s.opts.Root, "live_reload", s.hub != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes browser connections and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		_ = s.hub.Shutdown(ctx)
	}

	s.serverMutex.Lock()
	srv := s.httpServer
	s.serverMutex.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
