package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
)

type captured struct {
	path   string
	auth   string
	inputs map[string]any
	ver    string
}

func newTestClient(t *testing.T, status int, lines []string, got *captured) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if got != nil {
			*got = captured{path: r.URL.Path, auth: r.Header.Get("Authorization"), inputs: req.Inputs, ver: req.Version}
		}

		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			_, _ = w.Write([]byte(line))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:        "ww-key",
		BaseURL:       srv.URL + "/",
		Version:       "^1.0",
		ChatAppID:     "chat-app",
		DocumentAppID: "doc-app",
		ResearchAppID: "research-app",
		ReviewAppID:   "review-app",
		Timeout:       10 * time.Second,
	}, zap.NewNop())
}

func chunk(t *testing.T, kind, field, value string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"type": "chunk", "value": map[string]any{"type": kind, field: value}})
	require.NoError(t, err)
	return string(b) + "\n"
}

func caseText(title, url string) string {
	return "## [" + title + "](" + url + ")\n#### Published at 2020-01-01\n\n#### From: [source](https://src)\n\n#### Excerpts: \n\nexcerpt for " + title
}

func TestGenerateDocument_StreamsText(t *testing.T) {
	var got captured
	client := newTestClient(t, http.StatusOK, []string{
		chunk(t, "chunk", "value", "NON-DISCLOSURE "),
		chunk(t, "chunk", "val", "partial"),
		"AGREEMENT\n",
		chunk(t, "tool", "output", " body"),
	}, &got)

	var parts []string
	err := client.GenerateDocument(context.Background(), models.DocumentRequest{DocName: "NDA", Purpose: "hiring", Law: "California"}, func(text string) error {
		parts = append(parts, text)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NON-DISCLOSURE ", "AGREEMENT", " body"}, parts)
	assert.Equal(t, "/api/released-app/doc-app/run", got.path)
	assert.Equal(t, "Bearer ww-key", got.auth)
	assert.Equal(t, "^1.0", got.ver)
	assert.Equal(t, map[string]any{"doc_name": "NDA", "purpose": "hiring", "law": "California"}, got.inputs)
}

func TestResearchCaseLaw(t *testing.T) {
	var got captured
	client := newTestClient(t, http.StatusOK, []string{
		chunk(t, "tool", "output", caseText("A v. B", "https://law/1")+"\n\n"+caseText("C v. D", "https://law/2")),
		chunk(t, "chunk", "value", "thinking"),
		chunk(t, "tool", "output", caseText("A v. B again", "https://law/1")),
	}, &got)

	var emitted []models.ResearchResult
	results, err := client.ResearchCaseLaw(context.Background(), models.ResearchQuery{
		Query:        "cumulative trauma",
		Jurisdiction: "CA",
		TimeFrame:    "5 years",
	}, func(r models.ResearchResult) error {
		emitted = append(emitted, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "A v. B", results[0].Title)
	assert.Equal(t, "excerpt for A v. B", results[0].Excerpts)
	assert.Equal(t, "C v. D", results[1].Title)
	assert.Equal(t, results, emitted)

	assert.Equal(t, "/api/released-app/research-app/run", got.path)
	assert.Equal(t, "cumulative trauma", got.inputs["Query"])
	assert.Equal(t, "cumulative trauma", got.inputs["Keywords to include"])
	assert.Equal(t, "5 years", got.inputs["Time Frame"])
	assert.Equal(t, "", got.inputs["Keywords to exclude"])
}

func TestReviewDocument(t *testing.T) {
	var got captured
	client := newTestClient(t, http.StatusOK, []string{
		chunk(t, "chunk", "value", "Clause 4 "),
		chunk(t, "chunk", "value", "favors the employer."),
	}, &got)

	review, err := client.ReviewDocument(context.Background(), "contract text", "employee")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentReview{Party: "employee", Review: "Clause 4 favors the employer."}, review)
	assert.Equal(t, "/api/released-app/review-app/run", got.path)
	assert.Equal(t, "contract text", got.inputs["document"])
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, http.StatusOK, []string{chunk(t, "chunk", "value", "  answer  ")}, nil)

	got, err := client.Generate(context.Background(), "question", "context")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)

	empty := newTestClient(t, http.StatusOK, nil, nil)
	_, err = empty.Generate(context.Background(), "question", "context")
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.TypeContract, perr.Type)
}

func TestUpstreamErrorStatus(t *testing.T) {
	client := newTestClient(t, http.StatusUnauthorized, []string{`{"message":"Invalid API key"}`}, nil)

	_, err := client.ResearchCaseLaw(context.Background(), models.ResearchQuery{Query: "q"}, nil)
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Equal(t, "wordware", perr.Provider)
	assert.True(t, strings.HasSuffix(perr.Message, "Invalid API key"))
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	err := client.GenerateDocument(context.Background(), models.DocumentRequest{}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfigured)
}
