// Package export serializes a classification history to semicolon-delimited
// CSV the way spreadsheet tools expect it: UTF-8 BOM first, localized header
// labels, one line per record.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// csvHeader holds the human-readable column labels, in the fixed export
// column order.
var csvHeader = []string{
	"ID",
	"Data/Hora",
	"Classificação",
	"Pontuação de Confiança",
	"Conteúdo do E-mail",
	"Resposta Sugerida",
	"Tópico Principal",
	"Sentimento",
}

// CSVExporter is a CSV implementation of the Exporter interface
type CSVExporter struct {
	textProcessor *utils.TextProcessor
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(textProcessor *utils.TextProcessor) *CSVExporter {
	return &CSVExporter{textProcessor: textProcessor}
}

// ContentType returns the MIME type of the encoded output.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Filename returns the attachment filename for downloads.
func (e *CSVExporter) Filename() string {
	return "historico_emails.csv"
}

// Encode writes the record set to w. The output always starts with a UTF-8
// byte-order mark and a header row, even for an empty history. Newlines in
// free-text fields are collapsed so every record occupies exactly one line.
func (e *CSVExporter) Encode(w io.Writer, records []core.ClassificationRecord) error {
	bomWriter := unicode.UTF8BOM.NewEncoder().Writer(w)

	cw := csv.NewWriter(bomWriter)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CreatedAt.Format(time.RFC3339),
			rec.Classification,
			strconv.FormatFloat(rec.ConfidenceScore, 'f', -1, 64),
			e.textProcessor.CollapseNewlines(rec.EmailContent),
			e.textProcessor.CollapseNewlines(rec.SuggestedResponse),
			rec.KeyTopic,
			rec.Sentiment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}

	if closer, ok := bomWriter.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to finalize CSV output: %w", err)
		}
	}
	return nil
}
