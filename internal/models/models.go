package models

import "time"

// Role of a message inside a conversation thread.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FileRef is the opaque id of a file previously uploaded to the execution backend.
type FileRef string

// Message represents one immutable entry of a Thread
type Message struct {
	ID          string    `json:"id,omitempty"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Attachments []FileRef `json:"attachments,omitempty"`
}

// Thread represents backend-managed conversation state. It is created for a
// single top-level request and never reused.
type Thread struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStatus is the backend-reported state of a Run.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCompleted      RunStatus = "completed"
	RunFailed         RunStatus = "failed"
	RunCancelled      RunStatus = "cancelled"
	RunExpired        RunStatus = "expired"
	RunIncomplete     RunStatus = "incomplete"
)

// Terminal reports whether the backend will never move the run out of s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	}
	return false
}

// Run is one asynchronous execution of a Thread.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    RunStatus `json:"status"`
	LastError string    `json:"last_error,omitempty"`
}

// ToolType names a backend-side tool a run may use.
type ToolType string

const (
	ToolCodeInterpreter ToolType = "code_interpreter"
	ToolFileSearch      ToolType = "file_search"
)

// ToolConfig is the fixed tool/model/file configuration a run executes with.
type ToolConfig struct {
	AssistantID  string     `json:"assistant_id"`
	Model        string     `json:"model,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	Tools        []ToolType `json:"tools,omitempty"`
	Files        []FileRef  `json:"files,omitempty"`
}

// WithFile returns a copy of c whose file list is the base set plus file.
// The receiver's slice is never modified, so a shared base configuration can
// be used by concurrent requests.
func (c ToolConfig) WithFile(file FileRef) ToolConfig {
	out := c
	out.Tools = append([]ToolType(nil), c.Tools...)
	out.Files = make([]FileRef, 0, len(c.Files)+1)
	out.Files = append(out.Files, c.Files...)
	if file != "" {
		out.Files = append(out.Files, file)
	}
	return out
}
