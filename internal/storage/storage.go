package storage

import (
	"context"
	"errors"

	"github.com/xaenox/legal-assistant/internal/models"
)

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("job not found")

type Storage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	// ListJobs returns jobs newest first.
	ListJobs(ctx context.Context, limit, offset int) ([]*models.Job, error)
	Close() error
}
