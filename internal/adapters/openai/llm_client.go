package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	promptBuilder *prompt.Builder
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	promptBuilder *prompt.Builder,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		promptBuilder: promptBuilder,
		textProcessor: textProcessor,
	}
}

// ClassifyEmail sends the email text to OpenAI and returns the normalized
// classification result.
func (c *OpenAIClient) ClassifyEmail(ctx context.Context, text string) (*core.ClassificationResult, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)
	rendered := c.promptBuilder.Render(processed)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Você é um classificador de e-mails. Responda apenas com JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: rendered,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: openai: %v", core.ErrModelUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from openai", core.ErrInvalidModelOutput)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, fmt.Errorf("%w: openai content filter", core.ErrGenerationHalted)
	}

	return c.parseClassification(choice.Message.Content)
}

func (c *OpenAIClient) parseClassification(responseText string) (*core.ClassificationResult, error) {
	cleaned := utils.StripCodeFences(responseText)

	var raw core.RawModelOutput
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		extracted := utils.ExtractJSONObject(cleaned)
		if extracted == "" || json.Unmarshal([]byte(extracted), &raw) != nil {
			c.logger.Error("Model reply was not parseable JSON",
				zap.String("raw_response", responseText))
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidModelOutput, err)
		}
	}

	return raw.Normalize(), nil
}
