package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/storage"
)

const (
	defaultJobLimit = 50
	maxJobLimit     = 200
)

// startJob records a running job. Journal failures are logged and never
// fail the request.
func (s *Server) startJob(ctx context.Context, kind models.JobKind) *models.Job {
	job := &models.Job{
		ID:     uuid.New().String(),
		Kind:   kind,
		Status: models.JobRunning,
	}
	if err := s.deps.Jobs.SaveJob(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Warn("Failed to record job",
			zap.String("job_id", job.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	return job
}

func (s *Server) finishJob(ctx context.Context, job *models.Job, resultCount int, err error) {
	job.ResultCount = resultCount
	job.Status = models.JobCompleted
	job.Error = ""
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
	}

	if uerr := s.deps.Jobs.UpdateJob(context.WithoutCancel(ctx), job); uerr != nil {
		s.logger.Warn("Failed to update job",
			zap.String("job_id", job.ID),
			zap.Error(uerr))
	}
}

type jobsResponse struct {
	Jobs []*models.Job `json:"jobs"`
}

func (s *Server) listJobs(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultJobLimit)
	if err != nil || limit <= 0 {
		return badRequest(c, "limit must be a positive integer")
	}
	if limit > maxJobLimit {
		limit = maxJobLimit
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return badRequest(c, "offset must be a non-negative integer")
	}

	jobs, err := s.deps.Jobs.ListJobs(c.Request().Context(), limit, offset)
	if err != nil {
		return s.fail(c, "Failed to list jobs", err)
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}
	return c.JSON(http.StatusOK, jobsResponse{Jobs: jobs})
}

func (s *Server) getJob(c echo.Context) error {
	job, err := s.deps.Jobs.GetJob(c.Request().Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Job not found"})
	}
	if err != nil {
		return s.fail(c, "Failed to load job", err)
	}
	return c.JSON(http.StatusOK, job)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
