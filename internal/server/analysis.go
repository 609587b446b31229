package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
)

type analysisResponse struct {
	Status   string                `json:"status"`
	Analysis models.AnalysisResult `json:"analysis"`
}

// processDocument rates a medical report, either through the assistant
// orchestrator (which degrades instead of failing) or the function-calling
// analyzer.
func (s *Server) processDocument(c echo.Context) error {
	up, err := readUpload(c, s.analysis)
	if err != nil {
		return s.fail(c, "Error processing PDF", err)
	}

	useAssistant := c.FormValue("useAssistant") == "true"
	switch {
	case useAssistant && s.deps.Assistant == nil:
		return notConfigured(c, "Assistant")
	case !useAssistant && s.deps.Analyzer == nil:
		return notConfigured(c, "Rating analyzer")
	}

	text, err := s.deps.Extract(up.Kind, up.Data)
	if err != nil {
		return s.fail(c, "Error processing PDF", err)
	}

	occupation := c.FormValue("occupation")
	age := c.FormValue("age")
	s.logger.Info("Processing medical report",
		zap.String("name", up.Name),
		zap.Int("length", len(text.Content)),
		zap.Bool("use_assistant", useAssistant))

	ctx := c.Request().Context()
	job := s.startJob(ctx, models.JobAnalysis)

	var analysis models.AnalysisResult
	if useAssistant {
		analysis = s.deps.Assistant.ProcessDocument(ctx, text.Content, occupation, age, s.config.MaxRetries)
		var degraded error
		if analysis.Error != "" {
			degraded = errors.New(analysis.Error)
		}
		s.finishJob(ctx, job, 1, degraded)
	} else {
		analysis, err = s.deps.Analyzer.Analyze(ctx, text.Content, occupation, age)
		if err != nil {
			s.finishJob(ctx, job, 0, err)
			return s.fail(c, "Error processing PDF", err)
		}
		s.finishJob(ctx, job, 1, nil)
	}

	return c.JSON(http.StatusOK, analysisResponse{Status: "processing", Analysis: analysis})
}

func (s *Server) reviewDocument(c echo.Context) error {
	if s.deps.Workflow == nil {
		return notConfigured(c, "Workflow platform")
	}

	up, err := readUpload(c, s.review)
	if err != nil {
		return s.fail(c, "File upload error", err)
	}

	party := strings.TrimSpace(c.FormValue("party"))
	if party == "" {
		return badRequest(c, "Party information is required")
	}

	text, err := s.deps.Extract(up.Kind, up.Data)
	if err != nil {
		return s.fail(c, "Failed to review document", err)
	}

	ctx := c.Request().Context()
	job := s.startJob(ctx, models.JobReview)

	review, err := s.deps.Workflow.ReviewDocument(ctx, text.Content, party)
	if err != nil {
		s.finishJob(ctx, job, 0, err)
		return s.fail(c, "Failed to review document", err)
	}
	s.finishJob(ctx, job, 1, nil)

	return c.JSON(http.StatusOK, review)
}
