package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xaenox/legal-assistant/internal/document"
	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
	"github.com/xaenox/legal-assistant/internal/storage"
)

func pdfPart(data string) *filePart {
	return &filePart{name: "report.pdf", contentType: "application/pdf", data: []byte(data)}
}

func TestProcessDocument_OversizeUploadRejected(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	fake := &fakeAssistant{}
	s := newTestServer(t, Config{MaxUploadBytes: 1024}, Deps{Analyzer: analyzer, Assistant: fake, Extract: extractAsText})

	big := &filePart{name: "report.pdf", contentType: "application/pdf", data: bytes.Repeat([]byte("a"), 2048)}
	for _, useAssistant := range []string{"true", "false"} {
		rec := doMultipart(t, s, "/api/process-document", map[string]string{"useAssistant": useAssistant}, big)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[ErrorResponse](t, rec.Body.Bytes())
		assert.Contains(t, resp.Error, "file size exceeds")
	}
	assert.Equal(t, 0, analyzer.calls)
	assert.Equal(t, 0, fake.calls)
}

func TestProcessDocument_BodyPastFormOverheadRejected(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	fake := &fakeAssistant{}
	s := newTestServer(t, Config{MaxUploadBytes: 1024}, Deps{Analyzer: analyzer, Assistant: fake, Extract: extractAsText})

	huge := &filePart{name: "report.pdf", contentType: "application/pdf", data: bytes.Repeat([]byte("a"), 3<<20)}
	for _, useAssistant := range []string{"true", "false"} {
		rec := doMultipart(t, s, "/api/process-document", map[string]string{"useAssistant": useAssistant}, huge)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[ErrorResponse](t, rec.Body.Bytes())
		assert.Contains(t, resp.Error, "file size exceeds")
	}
	assert.Equal(t, 0, analyzer.calls)
	assert.Equal(t, 0, fake.calls)
}

func TestProcessDocument_RejectsNonPDF(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	s := newTestServer(t, Config{}, Deps{Analyzer: analyzer, Extract: extractAsText})

	docx := &filePart{name: "a.docx", contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", data: []byte("x")}
	rec := doMultipart(t, s, "/api/process-pdf", nil, docx)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), document.ErrPDFOnly.Error())

	rec = doMultipart(t, s, "/api/process-document", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), document.ErrNoFile.Error())
	assert.Equal(t, 0, analyzer.calls)
}

func TestProcessDocument_Analyzer(t *testing.T) {
	result := models.NewAnalysisResult()
	result.ExtractedInfo["name"] = "Jane Roe"
	analyzer := &fakeAnalyzer{result: result}
	jobs := storage.NewMemoryStorage()
	s := newTestServer(t, Config{}, Deps{Analyzer: analyzer, Jobs: jobs, Extract: extractAsText})

	rec := doMultipart(t, s, "/api/process-document", map[string]string{"occupation": "nurse", "age": "45"}, pdfPart("report body"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[analysisResponse](t, rec.Body.Bytes())
	assert.Equal(t, "processing", resp.Status)
	assert.Equal(t, "Jane Roe", resp.Analysis.ExtractedInfo["name"])
	assert.Equal(t, "report body", analyzer.text)

	list, err := jobs.ListJobs(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.JobAnalysis, list[0].Kind)
	assert.Equal(t, models.JobCompleted, list[0].Status)
}

func TestProcessDocument_AnalyzerError(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("upstream down")}
	s := newTestServer(t, Config{}, Deps{Analyzer: analyzer, Extract: extractAsText})

	rec := doMultipart(t, s, "/api/process-document", nil, pdfPart("report"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec.Body.Bytes())
	assert.Equal(t, "Error processing PDF", resp.Error)
	assert.Equal(t, "upstream down", resp.Details)
}

func TestProcessDocument_AssistantDegraded(t *testing.T) {
	fake := &fakeAssistant{analysis: models.DegradedAnalysis("run expired")}
	jobs := storage.NewMemoryStorage()
	s := newTestServer(t, Config{MaxRetries: 2}, Deps{Assistant: fake, Jobs: jobs, Extract: extractAsText})

	rec := doMultipart(t, s, "/api/process-document",
		map[string]string{"useAssistant": "true", "occupation": "welder"}, pdfPart("report"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[analysisResponse](t, rec.Body.Bytes())
	assert.Equal(t, "run expired", resp.Analysis.Error)
	assert.Equal(t, "welder", fake.occupation)
	assert.Equal(t, 2, fake.maxRetries)

	list, err := jobs.ListJobs(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.JobFailed, list[0].Status)
}

func TestChatUpload(t *testing.T) {
	s := newTestServer(t, Config{}, Deps{Extract: extractAsText})
	rec := doMultipart(t, s, "/api/chat/upload", nil, pdfPart("extracted text"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"extracted text","pages":1,"originalName":"report.pdf"}`, rec.Body.String())

	empty := newTestServer(t, Config{}, Deps{Extract: func(document.Kind, []byte) (document.Text, error) {
		return document.Text{}, document.ErrNoText
	}})
	rec = doMultipart(t, empty, "/api/chat/upload", nil, pdfPart("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantUpload(t *testing.T) {
	fake := &fakeAssistant{}
	s := newTestServer(t, Config{}, Deps{Uploader: fake})

	rec := doMultipart(t, s, "/api/assistants/upload", nil, pdfPart("%PDF"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fileId":"file-report.pdf"}`, rec.Body.String())
}

func TestReviewDocument(t *testing.T) {
	wf := &fakeWorkflow{review: models.DocumentReview{Party: "tenant", Review: "Clause 4 favors the landlord."}}
	s := newTestServer(t, Config{}, Deps{Workflow: wf, Extract: extractAsText})

	docx := &filePart{name: "lease.docx", contentType: "application/octet-stream", data: []byte("lease")}
	rec := doMultipart(t, s, "/api/review-document", map[string]string{"party": "tenant"}, docx)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"party":"tenant","review":"Clause 4 favors the landlord."}`, rec.Body.String())
	assert.Equal(t, "tenant", wf.party)

	rec = doMultipart(t, s, "/api/review-document", nil, docx)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Party information is required")

	txt := &filePart{name: "notes.txt", contentType: "text/plain", data: []byte("x")}
	rec = doMultipart(t, s, "/api/review-document", map[string]string{"party": "tenant"}, txt)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, wf.calls)
}

func TestCaseLawResearch_Streams(t *testing.T) {
	wf := &fakeWorkflow{results: []models.ResearchResult{
		{Title: "A v. B", URL: "https://a"},
		{Title: "C v. D", URL: "https://c"},
	}}
	jobs := storage.NewMemoryStorage()
	s := newTestServer(t, Config{}, Deps{Workflow: wf, Jobs: jobs})

	rec := doJSON(t, s, http.MethodPost, "/api/case-law-research", `{"query":"lumbar apportionment","jurisdiction":"CA"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Equal(t, "CA", wf.query.Jurisdiction)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	first := decode[researchChunk](t, []byte(lines[0]))
	require.Len(t, first.Results, 1)
	assert.Equal(t, "https://a", first.Results[0].URL)

	list, err := jobs.ListJobs(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ResultCount)
}

func TestCaseLawResearch_ErrorAfterResults(t *testing.T) {
	wf := &fakeWorkflow{
		results: []models.ResearchResult{{Title: "A v. B", URL: "https://a"}},
		err:     errors.New("connection reset"),
	}
	s := newTestServer(t, Config{}, Deps{Workflow: wf})

	rec := doJSON(t, s, http.MethodPost, "/api/case-law-research", `{"query":"q"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"error":"connection reset"}`, lines[1])
}

func TestCaseLawResearch_ErrorBeforeResults(t *testing.T) {
	wf := &fakeWorkflow{err: errors.New("unauthorized")}
	s := newTestServer(t, Config{}, Deps{Workflow: wf})

	rec := doJSON(t, s, http.MethodPost, "/api/case-law-research", `{"query":"q"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec.Body.Bytes())
	assert.Equal(t, "Error performing case law research", resp.Error)

	rec = doJSON(t, s, http.MethodPost, "/api/case-law-research", `{"jurisdiction":"CA"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, wf.calls)
}

func TestGenerateDocument(t *testing.T) {
	wf := &fakeWorkflow{chunks: []string{"NON-DISCLOSURE ", "AGREEMENT"}}
	s := newTestServer(t, Config{}, Deps{Workflow: wf})

	rec := doJSON(t, s, http.MethodPost, "/api/generate-document", `{"docName":"NDA","purpose":"hiring","law":"California"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NON-DISCLOSURE AGREEMENT", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	rec = doJSON(t, s, http.MethodPost, "/api/generate-document", `{"docName":"NDA","purpose":"hiring"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, wf.calls)
}

func TestGenerateDocument_ErrorMarker(t *testing.T) {
	wf := &fakeWorkflow{chunks: []string{"partial text"}, err: errors.New("stream closed")}
	s := newTestServer(t, Config{}, Deps{Workflow: wf})

	rec := doJSON(t, s, http.MethodPost, "/api/generate-document", `{"docName":"NDA","purpose":"hiring","law":"CA"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial text\nError: stream closed", rec.Body.String())
}

// closingWriter accepts a fixed number of writes and then behaves like a
// connection the client has dropped.
type closingWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (w *closingWriter) Write(p []byte) (int, error) {
	if w.writes == 0 {
		return 0, errors.New("broken pipe")
	}
	w.writes--
	return w.ResponseRecorder.Write(p)
}

func TestStreamErrorMarker_WriteFailureLogged(t *testing.T) {
	wf := &fakeWorkflow{
		chunks:  []string{"partial text"},
		results: []models.ResearchResult{{Title: "A v. B", URL: "https://a"}},
		err:     errors.New("stream closed"),
	}
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(Config{}, Deps{Workflow: wf, Jobs: storage.NewMemoryStorage(), Providers: provider.Registry{}}, zap.New(core))

	for path, body := range map[string]string{
		"/api/generate-document": `{"docName":"NDA","purpose":"hiring","law":"CA"}`,
		"/api/case-law-research": `{"query":"q"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w := &closingWriter{ResponseRecorder: httptest.NewRecorder(), writes: 1}
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), "stream closed", path)
	}

	dropped := logs.FilterMessage("Failed to write stream error marker").All()
	require.Len(t, dropped, 2)
	for _, entry := range dropped {
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
		assert.Equal(t, "broken pipe", entry.ContextMap()["error"])
	}
}
