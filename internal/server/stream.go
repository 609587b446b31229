package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
)

// chunkWriter commits the response headers on the first write, so a
// request that fails before producing output still gets a JSON error.
type chunkWriter struct {
	c           echo.Context
	contentType string
	started     bool
}

func (w *chunkWriter) write(p []byte) error {
	res := w.c.Response()
	if !w.started {
		res.Header().Set(echo.HeaderContentType, w.contentType)
		res.Header().Set("Cache-Control", "no-cache")
		res.Header().Set("X-Content-Type-Options", "nosniff")
		res.WriteHeader(http.StatusOK)
		w.started = true
	}
	if _, err := res.Write(p); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func (w *chunkWriter) writeJSONLine(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(append(line, '\n'))
}

type researchChunk struct {
	Results []models.ResearchResult `json:"results"`
}

type streamError struct {
	Error string `json:"error"`
}

// caseLawResearch streams one {"results":[...]} line per new case. A failure
// after the first line ends the stream with an {"error":...} line.
func (s *Server) caseLawResearch(c echo.Context) error {
	if s.deps.Workflow == nil {
		return notConfigured(c, "Workflow platform")
	}

	var q models.ResearchQuery
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(q.Query) == "" {
		return badRequest(c, "Query is required")
	}

	ctx := c.Request().Context()
	job := s.startJob(ctx, models.JobResearch)
	w := &chunkWriter{c: c, contentType: "application/x-ndjson"}

	results, err := s.deps.Workflow.ResearchCaseLaw(ctx, q, func(r models.ResearchResult) error {
		return w.writeJSONLine(researchChunk{Results: []models.ResearchResult{r}})
	})
	s.finishJob(ctx, job, len(results), err)

	if err != nil {
		if !w.started {
			return s.fail(c, "Error performing case law research", err)
		}
		s.logger.Warn("Case law research stream ended with error", zap.Error(err))
		if werr := w.writeJSONLine(streamError{Error: err.Error()}); werr != nil {
			s.logger.Debug("Failed to write stream error marker", zap.Error(werr))
		}
	}
	return nil
}

// generateDocument streams the generated document as plain text. A failure
// after the first chunk appends an "Error:" line.
func (s *Server) generateDocument(c echo.Context) error {
	if s.deps.Workflow == nil {
		return notConfigured(c, "Workflow platform")
	}

	var req models.DocumentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.DocName == "" || req.Purpose == "" || req.Law == "" {
		return badRequest(c, "Document name, purpose, and applicable law are required")
	}

	ctx := c.Request().Context()
	job := s.startJob(ctx, models.JobDocument)
	w := &chunkWriter{c: c, contentType: echo.MIMETextPlainCharsetUTF8}

	chunks := 0
	err := s.deps.Workflow.GenerateDocument(ctx, req, func(text string) error {
		chunks++
		return w.write([]byte(text))
	})
	s.finishJob(ctx, job, chunks, err)

	if err != nil {
		if !w.started {
			return s.fail(c, "Error generating legal document", err)
		}
		s.logger.Warn("Document generation stream ended with error", zap.Error(err))
		if werr := w.write([]byte("\nError: " + err.Error())); werr != nil {
			s.logger.Debug("Failed to write stream error marker", zap.Error(werr))
		}
	}
	return nil
}
