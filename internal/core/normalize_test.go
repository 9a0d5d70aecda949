package core

import (
	"encoding/json"
	"testing"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	result := RawModelOutput{}.Normalize()

	if result.Classification != ClassificationUnknown {
		t.Errorf("expected classification %q, got %q", ClassificationUnknown, result.Classification)
	}
	if result.ConfidenceScore != 0.0 {
		t.Errorf("expected confidence 0.0, got %f", result.ConfidenceScore)
	}
	if result.KeyTopic != DefaultKeyTopic {
		t.Errorf("expected key topic %q, got %q", DefaultKeyTopic, result.KeyTopic)
	}
	if result.Sentiment != DefaultSentiment {
		t.Errorf("expected sentiment %q, got %q", DefaultSentiment, result.Sentiment)
	}
	if result.SuggestedResponse != DefaultSuggestedResponse {
		t.Errorf("expected suggested response %q, got %q", DefaultSuggestedResponse, result.SuggestedResponse)
	}
}

func TestNormalizeKeepsProvidedFields(t *testing.T) {
	raw := RawModelOutput{
		Classification:    "Produtivo",
		ConfidenceScore:   json.RawMessage("0.92"),
		KeyTopic:          "suporte técnico",
		Sentiment:         "Negativo",
		SuggestedResponse: "Olá, estamos verificando seu caso.",
	}

	result := raw.Normalize()
	if result.Classification != ClassificationProductive {
		t.Errorf("expected Produtivo, got %q", result.Classification)
	}
	if result.ConfidenceScore != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", result.ConfidenceScore)
	}
	if result.KeyTopic != "suporte técnico" {
		t.Errorf("unexpected key topic %q", result.KeyTopic)
	}
	if result.Sentiment != "Negativo" {
		t.Errorf("unexpected sentiment %q", result.Sentiment)
	}
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	raw := RawModelOutput{
		Classification: "  Improdutivo \n",
		KeyTopic:       " felicitações ",
	}

	result := raw.Normalize()
	if result.Classification != ClassificationUnproductive {
		t.Errorf("expected trimmed Improdutivo, got %q", result.Classification)
	}
	if result.KeyTopic != "felicitações" {
		t.Errorf("expected trimmed key topic, got %q", result.KeyTopic)
	}
}

func TestCoerceConfidence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "number", raw: "0.75", want: 0.75},
		{name: "integer", raw: "1", want: 1.0},
		{name: "quoted number", raw: `"0.8"`, want: 0.8},
		{name: "quoted padded number", raw: `" 0.5 "`, want: 0.5},
		{name: "garbage string", raw: `"alta"`, want: 0.0},
		{name: "null", raw: "null", want: 0.0},
		{name: "object", raw: `{"v":1}`, want: 0.0},
		{name: "missing", raw: "", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			if got := coerceConfidence(raw); got != tt.want {
				t.Errorf("coerceConfidence(%s) = %f, want %f", tt.raw, got, tt.want)
			}
		})
	}
}
