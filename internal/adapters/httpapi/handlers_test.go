package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/storage"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/export"
	"github.com/mikey/llm-email-triage/internal/extract"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// stubLLM classifies every email as Produtivo unless the text matches
// failOn, in which case it returns failErr.
type stubLLM struct {
	failOn  string
	failErr error
}

func (s *stubLLM) ClassifyEmail(ctx context.Context, text string) (*core.ClassificationResult, error) {
	if s.failErr != nil && (s.failOn == "" || text == s.failOn) {
		return nil, s.failErr
	}
	return &core.ClassificationResult{
		Classification:    core.ClassificationProductive,
		ConfidenceScore:   0.92,
		KeyTopic:          "suporte",
		Sentiment:         "Neutro",
		SuggestedResponse: "Olá, já estamos verificando seu caso.",
	}, nil
}

func newTestServer(t *testing.T, llm core.LLMClient) *Server {
	t.Helper()
	logger := zap.NewNop()
	textProcessor := utils.NewTextProcessor(logger)
	store := storage.NewMemoryStore(logger)
	service := core.NewTriageService(
		llm,
		store,
		export.NewCSVExporter(textProcessor),
		logger,
		textProcessor,
		time.Second,
		20,
		150,
	)
	extractor := extract.NewExtractor(logger, textProcessor)
	sessions := NewSessionManager("triage_session", "test-secret", time.Hour, logger)
	return NewServer("127.0.0.1:0", time.Second, service, extractor, sessions, logger)
}

// classifyResponse mirrors one element of the classify response array.
type classifyResponse struct {
	Source            string  `json:"source"`
	Classification    string  `json:"classification"`
	ConfidenceScore   float64 `json:"confidence_score"`
	KeyTopic          string  `json:"key_topic"`
	Sentiment         string  `json:"sentiment"`
	SuggestedResponse string  `json:"suggested_response"`
	Error             string  `json:"error"`
}

func postForm(t *testing.T, s *Server, values url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func postMultipart(t *testing.T, s *Server, inline string, files map[string][]byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if inline != "" {
		mw.WriteField("email_text", inline)
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("files[]", name)
		if err != nil {
			t.Fatalf("failed to build form: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/classify", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, s *Server, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeArray(t *testing.T, rr *httptest.ResponseRecorder) []classifyResponse {
	t.Helper()
	var out []classifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON array: %v\nbody: %s", err, rr.Body.String())
	}
	return out
}

func TestIndexServesPage(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := get(t, s, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %q", ct)
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Error("expected a session cookie on first visit")
	}
}

func TestClassifyInlineText(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := postForm(t, s, url.Values{"email_text": {"Preciso de ajuda com meu pedido 4512."}}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	items := decodeArray(t, rr)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Classification != core.ClassificationProductive {
		t.Errorf("expected Produtivo, got %q", item.Classification)
	}
	if item.ConfidenceScore != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", item.ConfidenceScore)
	}
	if item.Source != extract.PastedTextName {
		t.Errorf("expected source %q, got %q", extract.PastedTextName, item.Source)
	}
	if item.SuggestedResponse == "" || item.KeyTopic == "" || item.Sentiment == "" {
		t.Errorf("expected all classification fields populated: %+v", item)
	}
}

func TestClassifyPersistsToHistory(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := postForm(t, s, url.Values{"email_text": {"Preciso de suporte."}}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	hr := get(t, s, "/history", cookies)
	if hr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", hr.Code)
	}
	var entries []core.HistoryEntry
	if err := json.Unmarshal(hr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("history is not a JSON array: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].EmailContent != "Preciso de suporte." {
		t.Errorf("unexpected history content %q", entries[0].EmailContent)
	}
}

func TestClassifyEmptyRequest(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := postForm(t, s, url.Values{"email_text": {"   "}}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestClassifyMalformedPDFLeavesNoHistory(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := postMultipart(t, s, "", map[string][]byte{"quebrado.pdf": []byte("not a pdf")}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	hr := get(t, s, "/history", rr.Result().Cookies())
	var entries []core.HistoryEntry
	if err := json.Unmarshal(hr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("history is not a JSON array: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history after failed extraction, got %d entries", len(entries))
	}
}

func TestClassifyInvalidModelOutput(t *testing.T) {
	s := newTestServer(t, &stubLLM{failErr: core.ErrInvalidModelOutput})

	rr := postForm(t, s, url.Values{"email_text": {"qualquer coisa"}}, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	hr := get(t, s, "/history", rr.Result().Cookies())
	var entries []core.HistoryEntry
	json.Unmarshal(hr.Body.Bytes(), &entries)
	if len(entries) != 0 {
		t.Errorf("expected no history entry after model failure, got %d", len(entries))
	}
}

func TestClassifyModelUnavailable(t *testing.T) {
	s := newTestServer(t, &stubLLM{failErr: core.ErrModelUnavailable})

	rr := postForm(t, s, url.Values{"email_text": {"qualquer coisa"}}, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestClassifyPartialFailureStays200(t *testing.T) {
	s := newTestServer(t, &stubLLM{failOn: "falha aqui", failErr: core.ErrInvalidModelOutput})

	rr := postMultipart(t, s, "texto bom", map[string][]byte{"ruim.txt": []byte("falha aqui")}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on partial success, got %d: %s", rr.Code, rr.Body.String())
	}

	items := decodeArray(t, rr)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	var failures, successes int
	for _, item := range items {
		if item.Error != "" {
			failures++
		} else if item.Classification != "" {
			successes++
		}
	}
	if successes != 1 || failures != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d/%d: %s", successes, failures, rr.Body.String())
	}
}

func TestHistoryEmptyIsArray(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	rr := get(t, s, "/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", rr.Body.String())
	}
}

func TestExportHeadersAndBOM(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	cr := postForm(t, s, url.Values{"email_text": {"para exportar"}}, nil)
	cookies := cr.Result().Cookies()

	rr := get(t, s, "/export_history", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "historico_emails.csv") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("export does not start with a UTF-8 BOM")
	}

	body := strings.TrimPrefix(rr.Body.String(), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("expected header plus 1 row, got %d lines", len(lines))
	}
}

func TestSessionCookieIsolatesHistories(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	// Two clients classify independently.
	ra := postForm(t, s, url.Values{"email_text": {"do cliente A"}}, nil)
	rb := postForm(t, s, url.Values{"email_text": {"do cliente B"}}, nil)

	ha := get(t, s, "/history", ra.Result().Cookies())
	var entriesA []core.HistoryEntry
	if err := json.Unmarshal(ha.Body.Bytes(), &entriesA); err != nil {
		t.Fatalf("history is not a JSON array: %v", err)
	}
	if len(entriesA) != 1 || entriesA[0].EmailContent != "do cliente A" {
		t.Errorf("client A sees the wrong history: %v", entriesA)
	}

	hb := get(t, s, "/history", rb.Result().Cookies())
	var entriesB []core.HistoryEntry
	if err := json.Unmarshal(hb.Body.Bytes(), &entriesB); err != nil {
		t.Fatalf("history is not a JSON array: %v", err)
	}
	if len(entriesB) != 1 || entriesB[0].EmailContent != "do cliente B" {
		t.Errorf("client B sees the wrong history: %v", entriesB)
	}
}

func TestSessionCookieReused(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	first := postForm(t, s, url.Values{"email_text": {"primeiro"}}, nil)
	cookies := first.Result().Cookies()

	// A request presenting a valid cookie must not be issued a new one.
	second := postForm(t, s, url.Values{"email_text": {"segundo"}}, cookies)
	if len(second.Result().Cookies()) != 0 {
		t.Error("expected no new session cookie when a valid one is presented")
	}

	hr := get(t, s, "/history", cookies)
	var entries []core.HistoryEntry
	if err := json.Unmarshal(hr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("history is not a JSON array: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected both classifications in one session, got %d", len(entries))
	}
}
