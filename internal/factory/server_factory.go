package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/httpapi"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/extract"
	"github.com/mikey/llm-email-triage/internal/ports"
)

// ServerFactory creates the HTTP transport
type ServerFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.TriageService
	extractor *extract.Extractor
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger, service *core.TriageService, extractor *extract.Extractor) *ServerFactory {
	return &ServerFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		extractor: extractor,
	}
}

// CreateWebServer creates the HTTP server with its session manager
func (f *ServerFactory) CreateWebServer() (ports.WebServer, error) {
	serverCfg := f.cfg.GetServer()
	sessionCfg := f.cfg.GetSession()

	shutdownTimeout, err := time.ParseDuration(serverCfg.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server shutdown timeout: %w", err)
	}
	sessionTTL, err := time.ParseDuration(sessionCfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session ttl: %w", err)
	}

	sessions := httpapi.NewSessionManager(sessionCfg.CookieName, sessionCfg.Secret, sessionTTL, f.logger)

	return httpapi.NewServer(
		serverCfg.ListenAddress,
		shutdownTimeout,
		f.service,
		f.extractor,
		sessions,
		f.logger,
	), nil
}
