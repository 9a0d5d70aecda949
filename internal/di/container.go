package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/export"
	"github.com/mikey/llm-email-triage/internal/extract"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/ports"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register prompt builder
	if err := container.Provide(prompt.NewBuilder); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.StoreFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register export encoder
	if err := container.Provide(func(textProcessor *utils.TextProcessor) core.Exporter {
		return export.NewCSVExporter(textProcessor)
	}); err != nil {
		return nil, err
	}

	// Register content extractor
	if err := container.Provide(extract.NewExtractor); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		llm core.LLMClient,
		store core.HistoryRepository,
		exporter core.Exporter,
		logger *zap.Logger,
		textProcessor *utils.TextProcessor,
		cfg *config.Config,
	) (*core.TriageService, error) {
		timeout, err := time.ParseDuration(cfg.GetLLM().Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout: %w", err)
		}
		historyCfg := cfg.GetHistory()
		return core.NewTriageService(
			llm,
			store,
			exporter,
			logger,
			textProcessor,
			timeout,
			historyCfg.Limit,
			historyCfg.SnippetLength,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register web server
	if err := container.Provide(func(f *factory.ServerFactory) (ports.WebServer, error) {
		return f.CreateWebServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
