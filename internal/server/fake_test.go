package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/document"
	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
	"github.com/xaenox/legal-assistant/internal/storage"
)

type fakeAdapter struct {
	mu       sync.Mutex
	calls    int
	contexts []string
	reply    string
	err      error
}

func (a *fakeAdapter) Generate(ctx context.Context, message, userContext string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.contexts = append(a.contexts, userContext)
	return a.reply, a.err
}

type fakeAssistant struct {
	calls      int
	file       models.FileRef
	occupation string
	maxRetries int
	response   string
	analysis   models.AnalysisResult
	err        error
}

func (a *fakeAssistant) GenerateResponse(ctx context.Context, message, userContext string, file models.FileRef) (string, error) {
	a.calls++
	a.file = file
	return a.response, a.err
}

func (a *fakeAssistant) ProcessDocument(ctx context.Context, text, occupation, age string, maxRetries int) models.AnalysisResult {
	a.calls++
	a.occupation = occupation
	a.maxRetries = maxRetries
	return a.analysis
}

func (a *fakeAssistant) UploadFile(ctx context.Context, name string, data []byte) (models.FileRef, error) {
	a.calls++
	return models.FileRef("file-" + name), a.err
}

type fakeAnalyzer struct {
	calls  int
	text   string
	result models.AnalysisResult
	err    error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, text, occupation, age string) (models.AnalysisResult, error) {
	a.calls++
	a.text = text
	return a.result, a.err
}

type fakeWorkflow struct {
	calls   int
	chunks  []string
	results []models.ResearchResult
	review  models.DocumentReview
	query   models.ResearchQuery
	party   string
	err     error
}

func (w *fakeWorkflow) GenerateDocument(ctx context.Context, req models.DocumentRequest, onText func(string) error) error {
	w.calls++
	for _, chunk := range w.chunks {
		if err := onText(chunk); err != nil {
			return err
		}
	}
	return w.err
}

func (w *fakeWorkflow) ResearchCaseLaw(ctx context.Context, q models.ResearchQuery, onResult func(models.ResearchResult) error) ([]models.ResearchResult, error) {
	w.calls++
	w.query = q
	var out []models.ResearchResult
	for _, r := range w.results {
		if err := onResult(r); err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, w.err
}

func (w *fakeWorkflow) ReviewDocument(ctx context.Context, text, party string) (models.DocumentReview, error) {
	w.calls++
	w.party = party
	return w.review, w.err
}

func extractAsText(kind document.Kind, data []byte) (document.Text, error) {
	return document.Text{Content: string(data), Pages: 1}, nil
}

func newTestServer(t *testing.T, config Config, deps Deps) *Server {
	t.Helper()
	if deps.Jobs == nil {
		deps.Jobs = storage.NewMemoryStorage()
	}
	if deps.Providers == nil {
		deps.Providers = provider.Registry{}
	}
	return New(config, deps, zap.NewNop())
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func doMultipart(t *testing.T, s *Server, path string, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		header.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func doAuthorized(t *testing.T, s *Server, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}
