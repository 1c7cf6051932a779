// Package api implements the HTTP handlers for the key verification service.
// Handlers translate HTTP requests into service calls and service errors into
// sanitized JSON responses; no business logic lives here.
package api
