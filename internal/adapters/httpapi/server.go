// Package httpapi exposes the triage service over HTTP: the page shell,
// classification, history and CSV export endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/extract"
)

// Server is the HTTP implementation of the ports.WebServer interface
type Server struct {
	httpServer      *http.Server
	service         *core.TriageService
	extractor       *extract.Extractor
	sessions        *SessionManager
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a new HTTP server bound to listenAddr
func NewServer(
	listenAddr string,
	shutdownTimeout time.Duration,
	service *core.TriageService,
	extractor *extract.Extractor,
	sessions *SessionManager,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:         service,
		extractor:       extractor,
		sessions:        sessions,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/classify", s.handleClassify)
	r.Get("/history", s.handleHistory)
	r.Get("/export_history", s.handleExport)

	s.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}

	return s
}

// Handler returns the route tree, used directly by the tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
