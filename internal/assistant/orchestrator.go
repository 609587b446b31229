// Package assistant drives thread/run interactions with a stateful
// assistants backend and parses the rating analysis it produces.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/prompts"
	"github.com/xaenox/legal-assistant/internal/rating"
)

// Backend is the stateful execution service that owns threads and runs.
type Backend interface {
	CreateThread(ctx context.Context) (models.Thread, error)
	CreateMessage(ctx context.Context, threadID string, msg models.Message) (models.Message, error)
	CreateRun(ctx context.Context, threadID string, config models.ToolConfig) (models.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (models.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	// LatestAssistantMessage returns the newest assistant message of the
	// thread, or an empty message when there is none.
	LatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error)
}

// Options is the polling and retry policy.
type Options struct {
	MaxAttempts  int
	PollInterval time.Duration
	RetryBackoff time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:  30,
		PollInterval: time.Second,
		RetryBackoff: 2 * time.Second,
	}
}

type Orchestrator struct {
	backend Backend
	tools   models.ToolConfig
	opts    Options
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator whose runs use tools as their base
// configuration. tools is never modified.
func NewOrchestrator(backend Backend, tools models.ToolConfig, opts Options, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		tools:   tools,
		opts:    opts,
		logger:  logger,
	}
}

func (o *Orchestrator) CreateThread(ctx context.Context) (string, error) {
	thread, err := o.backend.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	o.logger.Debug("Thread created", zap.String("thread_id", thread.ID))
	return thread.ID, nil
}

func (o *Orchestrator) AddMessage(ctx context.Context, threadID, content string, attachments []models.FileRef) (string, error) {
	msg, err := o.backend.CreateMessage(ctx, threadID, models.Message{
		Role:        models.RoleUser,
		Content:     content,
		Attachments: attachments,
	})
	if err != nil {
		return "", fmt.Errorf("adding message: %w", err)
	}
	o.logger.Debug("Message added",
		zap.String("thread_id", threadID),
		zap.String("message_id", msg.ID),
		zap.Int("attachments", len(attachments)))
	return msg.ID, nil
}

func (o *Orchestrator) StartRun(ctx context.Context, threadID string, config models.ToolConfig) (string, error) {
	run, err := o.backend.CreateRun(ctx, threadID, config)
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	o.logger.Info("Run started",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.String("assistant_id", config.AssistantID))
	return run.ID, nil
}

// AwaitCompletion polls the run until it reaches a terminal state and
// returns the content of the newest assistant message. A stuck or timed out
// run is cancelled on the backend before the error is returned.
func (o *Orchestrator) AwaitCompletion(ctx context.Context, threadID, runID string, maxAttempts int, pollInterval time.Duration) (string, error) {
	var lastStatus models.RunStatus

	for attempt := 0; attempt < maxAttempts; attempt++ {
		run, err := o.backend.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("retrieving run: %w", err)
		}

		if run.Status != lastStatus {
			o.logger.Info("Run status changed",
				zap.String("run_id", runID),
				zap.String("status", string(run.Status)),
				zap.Int("attempt", attempt))
			lastStatus = run.Status
		}

		next := Next(run, attempt, maxAttempts)
		switch next.Step {
		case StepCollect:
			msg, err := o.backend.LatestAssistantMessage(ctx, threadID)
			if err != nil {
				return "", fmt.Errorf("listing messages: %w", err)
			}
			if msg.Content == "" {
				return "", ErrEmptyResult
			}
			return msg.Content, nil
		case StepFail:
			return "", next.Err
		case StepCancel:
			o.logger.Warn("Run stuck in incomplete state, cancelling",
				zap.String("run_id", runID),
				zap.Int("attempt", attempt))
			o.cancel(ctx, threadID, runID)
			return "", next.Err
		}

		if attempt < maxAttempts-1 {
			if err := sleep(ctx, pollInterval); err != nil {
				return "", err
			}
		}
	}

	o.cancel(ctx, threadID, runID)
	return "", fmt.Errorf("%w after %d attempts", ErrPollTimeout, maxAttempts)
}

// cancel asks the backend to stop a run. A failed cancel is logged only.
func (o *Orchestrator) cancel(ctx context.Context, threadID, runID string) {
	if err := o.backend.CancelRun(context.WithoutCancel(ctx), threadID, runID); err != nil {
		o.logger.Error("Failed to cancel run",
			zap.String("thread_id", threadID),
			zap.String("run_id", runID),
			zap.Error(err))
		return
	}
	o.logger.Info("Run cancelled", zap.String("run_id", runID))
}

// execute runs one full thread lifecycle for a single user message.
func (o *Orchestrator) execute(ctx context.Context, content string, file models.FileRef) (string, error) {
	config := o.tools.WithFile(file)

	threadID, err := o.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	if _, err := o.AddMessage(ctx, threadID, content, config.Files); err != nil {
		return "", err
	}
	runID, err := o.StartRun(ctx, threadID, config)
	if err != nil {
		return "", err
	}
	return o.AwaitCompletion(ctx, threadID, runID, o.opts.MaxAttempts, o.opts.PollInterval)
}

// GenerateResponse answers a chat message in a fresh thread. file, when
// set, is added to the base reference files for this run only.
func (o *Orchestrator) GenerateResponse(ctx context.Context, message, userContext string, file models.FileRef) (string, error) {
	content := message
	if userContext != "" {
		content = message + "\n\nContext: " + userContext
	}
	return o.execute(ctx, content, file)
}

// ProcessDocument analyzes a medical report, retrying the whole thread
// lifecycle up to maxRetries times. It never fails: when every attempt
// errors the degraded result carries the last error message. A negative
// maxRetries means a single attempt.
func (o *Orchestrator) ProcessDocument(ctx context.Context, text, occupation, age string, maxRetries int) models.AnalysisResult {
	maxRetries = max(maxRetries, 0)
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			o.logger.Info("Retrying document analysis",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries))
			if err := sleep(ctx, time.Duration(attempt)*o.opts.RetryBackoff); err != nil {
				lastErr = err
				break
			}
		}

		raw, err := o.execute(ctx, prompts.MedicalReport(text, occupation, age), "")
		if err == nil {
			result := ParseAnalysis(raw)
			validation := rating.Validate(raw)
			result.Validation = &validation
			return result
		}

		o.logger.Error("Document analysis attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		lastErr = err

		if errors.Is(err, context.Canceled) {
			break
		}
	}

	o.logger.Error("All document analysis attempts failed", zap.Error(lastErr))
	return models.DegradedAnalysis(lastErr.Error())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
