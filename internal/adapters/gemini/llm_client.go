package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	promptBuilder *prompt.Builder
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	promptBuilder *prompt.Builder,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		promptBuilder: promptBuilder,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyEmail sends the email text to Gemini and returns the normalized
// classification result.
func (c *GeminiClient) ClassifyEmail(ctx context.Context, text string) (*core.ClassificationResult, error) {
	processed := c.textProcessor.ProcessText(text, c.maxBodySize)
	rendered := c.promptBuilder.Render(processed)

	resp, err := c.model.GenerateContent(ctx, genai.Text(rendered))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: gemini: %v", core.ErrModelUnavailable, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return nil, fmt.Errorf("%w: gemini blocked prompt (%s)", core.ErrGenerationHalted, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return nil, fmt.Errorf("%w: gemini stopped for safety", core.ErrGenerationHalted)
		}
		return nil, fmt.Errorf("%w: empty response from gemini", core.ErrInvalidModelOutput)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: gemini stopped for safety", core.ErrGenerationHalted)
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	return parseClassification(responseText, c.logger)
}

// parseClassification strips fence markers, decodes the JSON object and
// applies field-level normalization. The raw reply is logged on parse
// failure so broken model output can be diagnosed.
func parseClassification(responseText string, logger *zap.Logger) (*core.ClassificationResult, error) {
	cleaned := utils.StripCodeFences(responseText)

	var raw core.RawModelOutput
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		extracted := utils.ExtractJSONObject(cleaned)
		if extracted == "" || json.Unmarshal([]byte(extracted), &raw) != nil {
			logger.Error("Model reply was not parseable JSON",
				zap.String("raw_response", responseText))
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidModelOutput, err)
		}
	}

	return raw.Normalize(), nil
}
