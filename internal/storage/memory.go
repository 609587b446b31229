package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/legal-assistant/internal/models"
)

type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs: make(map[string]*models.Job),
	}
}

func (s *MemoryStorage) SaveJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryStorage) UpdateJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[job.ID]
	if !ok {
		return ErrNotFound
	}

	job.CreatedAt = existing.CreatedAt
	job.UpdatedAt = time.Now()

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryStorage) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *job
	return &out, nil
}

func (s *MemoryStorage) ListJobs(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out := *job
		jobs = append(jobs, &out)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if offset >= len(jobs) {
		return []*models.Job{}, nil
	}
	jobs = jobs[offset:]
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
