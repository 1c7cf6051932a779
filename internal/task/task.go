package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/evekey-api/internal/store"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeKeyLookup represents the task type for verifying an API key
	// and reconciling its characters.
	TaskTypeKeyLookup = "key_lookup"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// KeyLookupRequest is the immutable description of one lookup request:
// which key to verify and on whose behalf. The ID correlates the request
// with its eventual result.
type KeyLookupRequest struct {
	ID      uuid.UUID
	KeyID   int64
	VCode   string
	Account string
}

// NewKeyLookupRequest builds a request with a fresh correlation id.
func NewKeyLookupRequest(keyID int64, vcode, account string) KeyLookupRequest {
	return KeyLookupRequest{
		ID:      uuid.New(),
		KeyID:   keyID,
		VCode:   vcode,
		Account: account,
	}
}

// KeyLookupResult pairs the original request with its outcome: a summary on
// success, or a user-facing failure message. Every consumed request produces
// exactly one result.
type KeyLookupResult struct {
	Request KeyLookupRequest
	Summary *store.ReconcileSummary // nil when Failed
	Message string                  // user-facing outcome line
	Failed  bool
}

// TaskQueueReader provides read-only access to the task channel,
// allowing workers to consume tasks without the ability to enqueue.
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task

	// Len reports how many tasks are queued but not yet consumed
	Len() int
}

// TaskQueueWriter provides write access to the task queue,
// allowing services to enqueue tasks for processing.
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}
