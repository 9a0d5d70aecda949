package core

import (
	"time"
)

// Classification labels assigned by the model. Desconhecido is the fallback
// when the model output carries no usable label.
const (
	ClassificationProductive   = "Produtivo"
	ClassificationUnproductive = "Improdutivo"
	ClassificationUnknown      = "Desconhecido"
)

// Defaults applied during field normalization of model output.
const (
	DefaultKeyTopic          = "N/A"
	DefaultSentiment         = "Neutro"
	DefaultSuggestedResponse = "Nenhuma resposta necessária."
)

// EmailDocument is one unit of extracted email text ready for classification.
type EmailDocument struct {
	// Name is the source filename, or "texto colado" for pasted text.
	Name string
	Text string
}

// ClassificationResult is the normalized outcome of one model call.
type ClassificationResult struct {
	Classification    string  `json:"classification"`
	ConfidenceScore   float64 `json:"confidence_score"`
	KeyTopic          string  `json:"key_topic"`
	Sentiment         string  `json:"sentiment"`
	SuggestedResponse string  `json:"suggested_response"`
}

// ClassificationRecord is the persisted form of a classification, one row in
// the history store. ID and CreatedAt are assigned by the store at insert.
type ClassificationRecord struct {
	ID                int64
	UserID            string
	Classification    string
	ConfidenceScore   float64
	KeyTopic          string
	Sentiment         string
	SuggestedResponse string
	EmailContent      string
	CreatedAt         time.Time
}

// HistoryEntry is the read-side projection served by GET /history.
type HistoryEntry struct {
	Classification    string `json:"classification"`
	CreatedAt         string `json:"created_at"`
	EmailSnippet      string `json:"email_snippet"`
	EmailContent      string `json:"email_content"`
	SuggestedResponse string `json:"suggested_response"`
	KeyTopic          string `json:"key_topic"`
	Sentiment         string `json:"sentiment"`
}

// BatchItem is the per-document outcome of a classify call. Exactly one of
// Result or Err is set; a failed document never aborts its siblings.
type BatchItem struct {
	Source string
	Result *ClassificationResult
	Err    error
}
