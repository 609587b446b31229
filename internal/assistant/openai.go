package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
)

const providerName = "openai"

// OpenAIBackend runs threads on the OpenAI assistants API.
//
// Run-scoped files travel as code_interpreter attachments of the user
// message, so CreateRun only carries the assistant, model, instructions and
// tool types.
type OpenAIBackend struct {
	client *openai.Client
	logger *zap.Logger
}

func NewOpenAIBackend(client *openai.Client, logger *zap.Logger) *OpenAIBackend {
	return &OpenAIBackend{
		client: client,
		logger: logger,
	}
}

func (b *OpenAIBackend) CreateThread(ctx context.Context) (models.Thread, error) {
	thread, err := b.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return models.Thread{}, b.wrap(err)
	}
	return models.Thread{
		ID:        thread.ID,
		CreatedAt: time.Unix(thread.CreatedAt, 0),
	}, nil
}

func (b *OpenAIBackend) CreateMessage(ctx context.Context, threadID string, msg models.Message) (models.Message, error) {
	attachments := make([]openai.ThreadAttachment, 0, len(msg.Attachments))
	for _, file := range msg.Attachments {
		attachments = append(attachments, openai.ThreadAttachment{
			FileID: string(file),
			Tools:  []openai.ThreadAttachmentTool{{Type: string(models.ToolCodeInterpreter)}},
		})
	}

	created, err := b.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:        string(msg.Role),
		Content:     msg.Content,
		Attachments: attachments,
	})
	if err != nil {
		return models.Message{}, b.wrap(err)
	}

	msg.ID = created.ID
	return msg, nil
}

func (b *OpenAIBackend) CreateRun(ctx context.Context, threadID string, config models.ToolConfig) (models.Run, error) {
	tools := make([]openai.Tool, 0, len(config.Tools))
	for _, t := range config.Tools {
		tools = append(tools, openai.Tool{Type: openai.ToolType(t)})
	}

	run, err := b.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:  config.AssistantID,
		Model:        config.Model,
		Instructions: config.Instructions,
		Tools:        tools,
	})
	if err != nil {
		return models.Run{}, b.wrap(err)
	}
	return convertRun(run), nil
}

func (b *OpenAIBackend) RetrieveRun(ctx context.Context, threadID, runID string) (models.Run, error) {
	run, err := b.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return models.Run{}, b.wrap(err)
	}
	return convertRun(run), nil
}

func (b *OpenAIBackend) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := b.client.CancelRun(ctx, threadID, runID); err != nil {
		return b.wrap(err)
	}
	return nil
}

func (b *OpenAIBackend) LatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error) {
	limit := 20
	order := "desc"

	list, err := b.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return models.Message{}, b.wrap(err)
	}

	for _, msg := range list.Messages {
		if msg.Role != string(models.RoleAssistant) {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" && content.Text != nil {
				return models.Message{
					ID:      msg.ID,
					Role:    models.RoleAssistant,
					Content: content.Text.Value,
				}, nil
			}
		}
		return models.Message{ID: msg.ID, Role: models.RoleAssistant}, nil
	}

	return models.Message{}, nil
}

// UploadFile stores a file for use by assistant runs.
func (b *OpenAIBackend) UploadFile(ctx context.Context, name string, data []byte) (models.FileRef, error) {
	file, err := b.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", b.wrap(err)
	}

	b.logger.Info("File uploaded",
		zap.String("file_id", file.ID),
		zap.String("name", name),
		zap.Int("bytes", len(data)))
	return models.FileRef(file.ID), nil
}

// wrap maps client errors onto provider errors and the orchestrator's
// sentinels: transport failures and 5xx replies mean the backend is
// unavailable, 404 means the thread is unknown.
func (b *OpenAIBackend) wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	perr := provider.FromOpenAI(providerName, err)

	var pe *provider.Error
	if !errors.As(perr, &pe) {
		return perr
	}
	switch {
	case pe.Status == 0 || pe.Status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, perr)
	case pe.Status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrInvalidThread, perr)
	}
	return perr
}

func convertRun(run openai.Run) models.Run {
	out := models.Run{
		ID:       run.ID,
		ThreadID: run.ThreadID,
		Status:   models.RunStatus(run.Status),
	}
	if run.LastError != nil {
		out.LastError = run.LastError.Message
	}
	return out
}
