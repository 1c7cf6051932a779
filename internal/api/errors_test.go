package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/store"
	"github.com/phrazzld/evekey-api/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation error", domain.ErrValidation, http.StatusBadRequest},
		{"wrapped validation error", fmt.Errorf("%w: bad account", domain.ErrValidation), http.StatusBadRequest},
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"key not found", store.ErrKeyNotFound, http.StatusNotFound},
		{"account not found", store.ErrAccountNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"queue closed", task.ErrQueueClosed, http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"transaction failure", store.ErrTransactionFailed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal details never leak", func(t *testing.T) {
		t.Parallel()
		err := errors.New(`pq: INSERT INTO api_keys failed: vcode "supersecret" too long`)
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
	})

	t.Run("validation messages pass through", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("%w: account must not be empty", domain.ErrValidation)
		assert.Contains(t, GetSafeErrorMessage(err), "account must not be empty")
	})

	t.Run("queue states get actionable messages", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Service busy, try again later.", GetSafeErrorMessage(task.ErrQueueFull))
		assert.Equal(t, "Service is shutting down.", GetSafeErrorMessage(task.ErrQueueClosed))
	})
}
