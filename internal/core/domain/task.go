package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
// UUIDs are used so ids are also valid Qdrant point ids.
func GenerateID() string {
	return uuid.NewString()
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIndexDocument embeds a stored document's chunks and upserts them into the vector index
	TaskTypeIndexDocument TaskType = "index_document"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// Payload contains task-specific data
	// For index_document: {"document_id": "..."}
	Payload map[string]string `json:"payload"`

	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Error       string     `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (retry backoff)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  5,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewIndexDocumentTask creates a task to (re)build vector entries for a document
func NewIndexDocumentTask(documentID string) *Task {
	return NewTask(TaskTypeIndexDocument, map[string]string{
		"document_id": documentID,
	})
}

// DocumentID extracts the document_id from the payload
func (t *Task) DocumentID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["document_id"]
}

// MarkProcessing marks the task as being processed
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.Attempts++
	t.StartedAt = &now
	t.UpdatedAt = now
}

// MarkCompleted marks the task as successfully completed
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// MarkFailed records a failure. The task goes back to pending with
// exponential backoff until MaxAttempts is reached.
func (t *Task) MarkFailed(reason string) {
	now := time.Now()
	t.Error = reason
	t.UpdatedAt = now
	if t.Attempts >= t.MaxAttempts {
		t.Status = TaskStatusFailed
		t.CompletedAt = &now
		return
	}
	t.Status = TaskStatusPending
	t.ScheduledFor = now.Add(time.Duration(1<<t.Attempts) * time.Second)
}

// CanRetry reports whether another attempt is allowed
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}
