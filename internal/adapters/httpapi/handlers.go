package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/extract"
)

//go:embed static/index.html
var staticFS embed.FS

const maxUploadBytes = 16 << 20 // 16MB across the whole form

// classifyItem flattens the classification fields to the top level of each
// array element, with source/error alongside. POST /classify always answers
// with an array; unwrapping single results is a client-side convenience.
type classifyItem struct {
	Source string `json:"source,omitempty"`
	*core.ClassificationResult
	Error string `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Touch the session so the cookie exists before the first classify.
	s.sessions.UserID(w, r)

	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "página indisponível")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	userID := s.sessions.UserID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	inline, uploads, err := parseClassifyForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("requisição inválida: %v", err))
		return
	}

	docs, err := s.extractor.Extract(inline, uploads)
	if err != nil {
		s.logger.Warn("Content extraction failed", zap.Error(err))
		respondError(w, statusForError(err), userMessage(err))
		return
	}

	items := s.service.ClassifyBatch(r.Context(), userID, docs)

	// A request whose every document failed is answered with the status of
	// the first failure; partial success stays 200 so the successes are
	// not lost.
	if allFailed(items) {
		first := firstError(items)
		respondError(w, statusForError(first), userMessage(first))
		return
	}

	out := make([]classifyItem, 0, len(items))
	for _, item := range items {
		ci := classifyItem{
			Source:               item.Source,
			ClassificationResult: item.Result,
		}
		if item.Err != nil {
			ci.Error = userMessage(item.Err)
		}
		out = append(out, ci)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := s.sessions.UserID(w, r)
	entries := s.service.History(r.Context(), userID)
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID := s.sessions.UserID(w, r)

	// Encode into a buffer first so a storage failure can still produce a
	// clean 500 instead of a half-written attachment.
	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), userID, &buf); err != nil {
		s.logger.Error("History export failed",
			zap.String("user_id", userID),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "falha ao gerar o arquivo CSV")
		return
	}

	exporter := s.service.Exporter()
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exporter.Filename()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseClassifyForm reads the inline text field and the uploaded files from
// either a multipart or a urlencoded classify request. Both the legacy
// single "file" key and the "files[]" key are accepted.
func parseClassifyForm(r *http.Request) (string, []extract.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return "", nil, err
		}
		if err := r.ParseForm(); err != nil {
			return "", nil, err
		}
	}

	inline := r.FormValue("email_text")

	var uploads []extract.Upload
	if r.MultipartForm != nil {
		var headers []*multipart.FileHeader
		headers = append(headers, r.MultipartForm.File["files[]"]...)
		headers = append(headers, r.MultipartForm.File["file"]...)

		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return "", nil, fmt.Errorf("falha ao abrir %s: %w", fh.Filename, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return "", nil, fmt.Errorf("falha ao ler %s: %w", fh.Filename, err)
			}
			uploads = append(uploads, extract.Upload{Filename: fh.Filename, Data: data})
		}
	}

	return inline, uploads, nil
}

func allFailed(items []core.BatchItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Err == nil {
			return false
		}
	}
	return true
}

func firstError(items []core.BatchItem) error {
	for _, item := range items {
		if item.Err != nil {
			return item.Err
		}
	}
	return nil
}

// statusForError maps the error taxonomy to HTTP status codes: content
// problems are the caller's fault, an unconfigured or unreachable model is
// 503, everything else is 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyContent),
		errors.Is(err, core.ErrEncoding),
		errors.Is(err, core.ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage translates taxonomy errors into the user-facing messages; the
// detailed cause stays in the logs.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyContent):
		return "Nenhum conteúdo de e-mail fornecido ou o arquivo está vazio."
	case errors.Is(err, core.ErrEncoding):
		return "Não foi possível decodificar o arquivo .txt. Tente usar a codificação UTF-8."
	case errors.Is(err, core.ErrExtraction):
		return "Falha ao processar o arquivo PDF. Verifique se o texto é legível."
	case errors.Is(err, core.ErrModelUnavailable):
		return "O modelo de IA não está disponível. Verifique a configuração da chave da API."
	case errors.Is(err, core.ErrGenerationHalted):
		return "A IA interrompeu a geração por razões de segurança ou conteúdo."
	case errors.Is(err, core.ErrInvalidModelOutput):
		return "A resposta da IA não estava em um formato válido."
	default:
		return "Ocorreu um erro inesperado no servidor."
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
