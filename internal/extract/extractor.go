// Package extract turns uploaded artifacts (pasted text, .txt and .pdf
// files) into plain text documents ready for classification.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// PastedTextName labels the document built from the inline form field.
const PastedTextName = "texto colado"

// Upload is one file received from the classify form.
type Upload struct {
	Filename string
	Data     []byte
}

// Extractor converts inline text and uploads into EmailDocuments.
type Extractor struct {
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new content extractor
func NewExtractor(logger *zap.Logger, textProcessor *utils.TextProcessor) *Extractor {
	return &Extractor{
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract builds the document batch for one classify request. Inline text is
// used verbatim; .txt uploads must be UTF-8; .pdf uploads are read page by
// page; files with any other extension are skipped. The only whole-batch
// error conditions are an unreadable recognized file and the complete
// absence of usable content.
func (e *Extractor) Extract(inline string, uploads []Upload) ([]core.EmailDocument, error) {
	var docs []core.EmailDocument

	if text := strings.TrimSpace(inline); text != "" {
		docs = append(docs, core.EmailDocument{Name: PastedTextName, Text: text})
	}

	for _, up := range uploads {
		switch strings.ToLower(filepath.Ext(up.Filename)) {
		case ".txt":
			if !utf8.Valid(up.Data) {
				return nil, fmt.Errorf("%w: %s", core.ErrEncoding, up.Filename)
			}
			if text := strings.TrimSpace(string(up.Data)); text != "" {
				docs = append(docs, core.EmailDocument{Name: up.Filename, Text: text})
			}
		case ".pdf":
			text, err := e.extractPDF(up.Data)
			if err != nil {
				e.logger.Warn("PDF extraction failed",
					zap.String("filename", up.Filename),
					zap.Error(err))
				return nil, fmt.Errorf("%w: %s", core.ErrExtraction, up.Filename)
			}
			if text = strings.TrimSpace(text); text != "" {
				docs = append(docs, core.EmailDocument{Name: up.Filename, Text: text})
			}
		default:
			e.logger.Debug("Skipping upload with unsupported extension",
				zap.String("filename", up.Filename))
		}
	}

	if len(docs) == 0 {
		return nil, core.ErrEmptyContent
	}
	return docs, nil
}

// extractPDF concatenates the text of every page. A page whose text cannot
// be read contributes an empty string; only a document-level failure aborts.
func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("Unreadable PDF page treated as empty",
				zap.Int("page", i),
				zap.Error(err))
			continue
		}
		sb.WriteString(pageText)
	}

	return e.textProcessor.SanitizeUTF8(sb.String()), nil
}
