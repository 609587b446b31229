package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/legal-assistant/internal/models"
)

func TestMemoryStorage_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	job := &models.Job{ID: "j1", Kind: models.JobAnalysis, Status: models.JobRunning}
	require.NoError(t, s.SaveJob(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, got.Status)

	// returned copies must not alias the stored value
	got.Status = models.JobFailed
	again, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, again.Status)
}

func TestMemoryStorage_UpdateUnknown(t *testing.T) {
	s := NewMemoryStorage()
	err := s.UpdateJob(context.Background(), &models.Job{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	job := &models.Job{ID: "j1", Kind: models.JobResearch, Status: models.JobRunning}
	require.NoError(t, s.SaveJob(ctx, job))
	created := job.CreatedAt

	update := &models.Job{ID: "j1", Kind: models.JobResearch, Status: models.JobCompleted, ResultCount: 3}
	require.NoError(t, s.UpdateJob(ctx, update))
	assert.Equal(t, created, update.CreatedAt)

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	assert.Equal(t, 3, got.ResultCount)
}

func TestMemoryStorage_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		job := &models.Job{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.SaveJob(ctx, job))
	}

	jobs, err := s.ListJobs(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].ID)
	assert.Equal(t, "b", jobs[1].ID)

	jobs, err = s.ListJobs(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].ID)

	jobs, err = s.ListJobs(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
