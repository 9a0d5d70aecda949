package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawModelOutput mirrors the JSON object the model is instructed to return.
// Confidence is kept raw because models emit it as a number, a quoted number,
// or garbage, and none of those may fail the request.
type RawModelOutput struct {
	Classification    string          `json:"classification"`
	ConfidenceScore   json.RawMessage `json:"confidence_score"`
	KeyTopic          string          `json:"key_topic"`
	Sentiment         string          `json:"sentiment"`
	SuggestedResponse string          `json:"suggested_response"`
}

// Normalize applies the field-level fallbacks. Each field is handled
// independently; a bad value degrades to its default and never errors.
func (r RawModelOutput) Normalize() *ClassificationResult {
	result := &ClassificationResult{
		Classification:    strings.TrimSpace(r.Classification),
		ConfidenceScore:   coerceConfidence(r.ConfidenceScore),
		KeyTopic:          strings.TrimSpace(r.KeyTopic),
		Sentiment:         strings.TrimSpace(r.Sentiment),
		SuggestedResponse: strings.TrimSpace(r.SuggestedResponse),
	}

	if result.Classification == "" {
		result.Classification = ClassificationUnknown
	}
	if result.KeyTopic == "" {
		result.KeyTopic = DefaultKeyTopic
	}
	if result.Sentiment == "" {
		result.Sentiment = DefaultSentiment
	}
	if result.SuggestedResponse == "" {
		result.SuggestedResponse = DefaultSuggestedResponse
	}

	return result
}

// coerceConfidence turns whatever the model produced into a float in a
// best-effort way, falling back to 0.0.
func coerceConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}

	return 0.0
}
