package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaenox/legal-assistant/internal/models"
)

// fakeBackend replays a fixed status sequence for every run and counts calls.
type fakeBackend struct {
	mu sync.Mutex

	statuses  []models.RunStatus
	lastError string
	content   string
	threadErr error

	threads  int
	messages []models.Message
	runs     []models.ToolConfig
	polls    int
	cancels  int
}

func (f *fakeBackend) CreateThread(ctx context.Context) (models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	if f.threadErr != nil {
		return models.Thread{}, f.threadErr
	}
	return models.Thread{ID: fmt.Sprintf("thread_%d", f.threads)}, nil
}

func (f *fakeBackend) CreateMessage(ctx context.Context, threadID string, msg models.Message) (models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = fmt.Sprintf("msg_%d", len(f.messages)+1)
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeBackend) CreateRun(ctx context.Context, threadID string, config models.ToolConfig) (models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, config)
	f.polls = 0
	return models.Run{ID: "run_1", ThreadID: threadID, Status: models.RunQueued}, nil
}

func (f *fakeBackend) RetrieveRun(ctx context.Context, threadID, runID string) (models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[len(f.statuses)-1]
	if f.polls < len(f.statuses) {
		status = f.statuses[f.polls]
	}
	f.polls++
	return models.Run{ID: runID, ThreadID: threadID, Status: status, LastError: f.lastError}, nil
}

func (f *fakeBackend) CancelRun(ctx context.Context, threadID, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeBackend) LatestAssistantMessage(ctx context.Context, threadID string) (models.Message, error) {
	return models.Message{ID: "msg_reply", Role: models.RoleAssistant, Content: f.content}, nil
}
