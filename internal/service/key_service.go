package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/task"
)

// Common service errors
var (
	ErrNilRunner     = errors.New("task runner cannot be nil")
	ErrNilVerifier   = errors.New("verifier cannot be nil")
	ErrNilReconciler = errors.New("reconciler cannot be nil")
)

// TaskRunner defines the interface for submitting background tasks and
// handing out the result publisher new tasks report to.
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(task task.Task) error

	// ResultPublisher returns the publisher tasks deliver their outcome to
	ResultPublisher() task.ResultPublisher
}

// KeyService accepts key lookup requests and turns them into background
// tasks. Results are delivered asynchronously on the runner's result queue,
// correlated by the request id.
type KeyService struct {
	runner     TaskRunner
	verifier   task.KeyVerifier
	reconciler task.KeyReconciler
	logger     *slog.Logger
}

// NewKeyService creates a new KeyService with the given dependencies.
func NewKeyService(
	runner TaskRunner,
	verifier task.KeyVerifier,
	reconciler task.KeyReconciler,
	logger *slog.Logger,
) (*KeyService, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	if verifier == nil {
		return nil, ErrNilVerifier
	}
	if reconciler == nil {
		return nil, ErrNilReconciler
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &KeyService{
		runner:     runner,
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger.With(slog.String("component", "key_service")),
	}, nil
}

// SubmitLookup validates the request, builds the lookup task, and enqueues
// it. Fire-and-forget: the returned request carries the correlation id the
// caller can match the eventual result against.
func (s *KeyService) SubmitLookup(
	ctx context.Context,
	keyID int64,
	vcode string,
	account string,
) (task.KeyLookupRequest, error) {
	request := task.NewKeyLookupRequest(keyID, vcode, account)

	lookupTask, err := task.NewKeyLookupTask(
		request,
		s.verifier,
		s.reconciler,
		s.runner.ResultPublisher(),
		s.logger,
	)
	if err != nil {
		return task.KeyLookupRequest{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.runner.Submit(lookupTask); err != nil {
		return task.KeyLookupRequest{}, fmt.Errorf("failed to submit lookup: %w", err)
	}

	s.logger.Info("lookup submitted",
		slog.String("request_id", request.ID.String()),
		slog.Int64("key_id", keyID),
		slog.String("account", domain.NormalizeAccount(account)))
	return request, nil
}
