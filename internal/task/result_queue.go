package task

import "log/slog"

// ResultQueue carries completed lookup outcomes back toward the caller.
// Publishing blocks rather than drops: the exactly-one-result guarantee
// holds as long as a consumer drains the channel.
type ResultQueue struct {
	results chan KeyLookupResult
	logger  *slog.Logger
}

// NewResultQueue creates a new result queue with the specified buffer size
func NewResultQueue(size int, logger *slog.Logger) *ResultQueue {
	return &ResultQueue{
		results: make(chan KeyLookupResult, size),
		logger:  logger,
	}
}

// Publish delivers a result, blocking until the consumer has room.
func (q *ResultQueue) Publish(result KeyLookupResult) {
	q.results <- result
	q.logger.Debug("result published",
		"request_id", result.Request.ID,
		"key_id", result.Request.KeyID,
		"failed", result.Failed)
}

// Results returns the read-only channel the consumer drains.
func (q *ResultQueue) Results() <-chan KeyLookupResult {
	return q.results
}

// Close closes the result channel. Must only be called once no publisher
// can still be running; the runner does this after its workers have exited.
func (q *ResultQueue) Close() {
	close(q.results)
}
