package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/store"
)

// Local error kinds a verifier reports. The platform adapter translates
// provider-specific errors into these before they reach the task.
var (
	// ErrInvalidKey means the provider answered and rejected the key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrProviderUnreachable means the provider could not be reached or
	// faulted. Distinct from a rejected key.
	ErrProviderUnreachable = errors.New("provider unreachable")
)

// Common construction errors
var (
	ErrNilVerifier   = errors.New("verifier cannot be nil")
	ErrNilReconciler = errors.New("reconciler cannot be nil")
	ErrNilResults    = errors.New("result publisher cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
)

// KeyVerifier checks a key against the external provider and returns the
// characters it grants access to.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, keyID int64, vcode string) ([]domain.Character, error)
}

// KeyReconciler durably associates a verified key and its characters with
// an account.
type KeyReconciler interface {
	UpsertKeyAndReconcile(
		ctx context.Context,
		keyID int64,
		vcode string,
		account string,
		chars []domain.Character,
	) (*store.ReconcileSummary, error)
}

// ResultPublisher receives the outcome of a finished task.
type ResultPublisher interface {
	Publish(result KeyLookupResult)
}

// KeyLookupTask implements the Task interface for verifying one API key and
// reconciling its characters. Whatever happens during execution, exactly one
// result is published for the request.
type KeyLookupTask struct {
	id         uuid.UUID
	request    KeyLookupRequest
	verifier   KeyVerifier
	reconciler KeyReconciler
	results    ResultPublisher
	logger     *slog.Logger
	status     TaskStatus
}

// NewKeyLookupTask creates a new key lookup task for the given request.
func NewKeyLookupTask(
	request KeyLookupRequest,
	verifier KeyVerifier,
	reconciler KeyReconciler,
	results ResultPublisher,
	logger *slog.Logger,
) (*KeyLookupTask, error) {
	if verifier == nil {
		return nil, ErrNilVerifier
	}
	if reconciler == nil {
		return nil, ErrNilReconciler
	}
	if results == nil {
		return nil, ErrNilResults
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if request.KeyID <= 0 {
		return nil, domain.ErrInvalidKeyID
	}
	if request.VCode == "" {
		return nil, domain.ErrEmptyVCode
	}
	if domain.NormalizeAccount(request.Account) == "" {
		return nil, domain.ErrEmptyAccount
	}

	return &KeyLookupTask{
		id:         uuid.New(),
		request:    request,
		verifier:   verifier,
		reconciler: reconciler,
		results:    results,
		logger: logger.With(
			"task_type", TaskTypeKeyLookup,
			"request_id", request.ID,
			"key_id", request.KeyID,
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *KeyLookupTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *KeyLookupTask) Type() string {
	return TaskTypeKeyLookup
}

// Status returns the current task status
func (t *KeyLookupTask) Status() TaskStatus {
	return t.status
}

// Request returns the lookup request this task will execute.
func (t *KeyLookupTask) Request() KeyLookupRequest {
	return t.request
}

// Execute verifies the key and reconciles its characters into storage.
// Failures at either stage are reported as a result message, never as a
// worker-killing condition; the returned error exists for the runner's
// logging only. No stage is retried automatically.
func (t *KeyLookupTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting key lookup")

	chars, err := t.verifier.VerifyKey(ctx, t.request.KeyID, t.request.VCode)
	if err != nil {
		t.status = TaskStatusFailed
		if errors.Is(err, ErrInvalidKey) {
			t.logger.Warn("invalid key")
			t.fail("Invalid key.")
			return fmt.Errorf("key %d rejected by provider: %w", t.request.KeyID, err)
		}

		t.logger.Warn("error loading key", "error", err)
		t.fail(fmt.Sprintf("Failed to load API key %d.", t.request.KeyID))
		return fmt.Errorf("failed to load key %d: %w", t.request.KeyID, err)
	}

	names := make([]string, len(chars))
	for i, char := range chars {
		names[i] = char.Name
	}
	t.logger.Debug("key verified", "characters", names)

	summary, err := t.reconciler.UpsertKeyAndReconcile(
		ctx,
		t.request.KeyID,
		t.request.VCode,
		t.request.Account,
		chars,
	)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Warn("database error saving key", "error", err)
		t.fail("Database error, try again later.")
		return fmt.Errorf("failed to save key %d: %w", t.request.KeyID, err)
	}

	t.status = TaskStatusCompleted
	t.results.Publish(KeyLookupResult{
		Request: t.request,
		Summary: summary,
		Message: summary.Message(),
	})
	t.logger.Info("key lookup completed", "characters", len(summary.Characters))
	return nil
}

// fail publishes the single failure result for this task.
func (t *KeyLookupTask) fail(message string) {
	t.results.Publish(KeyLookupResult{
		Request: t.request,
		Message: message,
		Failed:  true,
	})
}
