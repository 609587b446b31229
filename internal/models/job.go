package models

import "time"

type JobKind string

const (
	JobAnalysis      JobKind = "analysis"
	JobAssistantChat JobKind = "assistant_chat"
	JobResearch      JobKind = "case_law_research"
	JobDocument      JobKind = "document_generation"
	JobReview        JobKind = "document_review"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is a journal entry for one long-running request
type Job struct {
	ID          string    `json:"id"`
	Kind        JobKind   `json:"kind"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	ResultCount int       `json:"resultCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
