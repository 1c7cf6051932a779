// Package task manages background job queuing, processing, and lifecycle.
// It implements the asynchronous key lookup pipeline: a fixed-size worker
// pool drains a task queue, each worker verifies a key against the external
// provider and reconciles the result into storage, and every consumed task
// yields exactly one correlated entry on the result queue. Shutdown drains
// outstanding work for a bounded grace window before abandoning it.
package task
