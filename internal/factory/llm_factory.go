package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/bedrock"
	"github.com/mikey/llm-email-triage/internal/adapters/gemini"
	"github.com/mikey/llm-email-triage/internal/adapters/openai"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	promptBuilder *prompt.Builder
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, promptBuilder *prompt.Builder, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		promptBuilder: promptBuilder,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration. A
// provider with no credential yields a degraded client that answers every
// call with ErrModelUnavailable, so the process still starts and the HTTP
// layer can serve a clean 503.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "gemini":
		if f.cfg.GetGemini().APIKey == "" {
			f.logger.Warn("Gemini API key not configured, classification is disabled")
			return &unavailableClient{reason: "gemini API key not configured"}, nil
		}
		factory := gemini.NewFactory(f.cfg, f.logger, f.promptBuilder, f.textProcessor)
		return factory.CreateClient()
	case "openai":
		if f.cfg.GetOpenAI().APIKey == "" {
			f.logger.Warn("OpenAI API key not configured, classification is disabled")
			return &unavailableClient{reason: "openai API key not configured"}, nil
		}
		factory := openai.NewFactory(f.cfg, f.logger, f.promptBuilder, f.textProcessor)
		return factory.CreateLLMClient()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.promptBuilder, f.textProcessor)
		return factory.CreateClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}

// unavailableClient stands in for a provider with no credential.
type unavailableClient struct {
	reason string
}

func (c *unavailableClient) ClassifyEmail(ctx context.Context, text string) (*core.ClassificationResult, error) {
	return nil, fmt.Errorf("%w: %s", core.ErrModelUnavailable, c.reason)
}
