package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/store"
)

// mockVerifier implements KeyVerifier for testing
type mockVerifier struct {
	chars []domain.Character
	err   error
	calls int
}

func (m *mockVerifier) VerifyKey(ctx context.Context, keyID int64, vcode string) ([]domain.Character, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chars, nil
}

// mockReconciler implements KeyReconciler for testing
type mockReconciler struct {
	summary *store.ReconcileSummary
	err     error
	calls   int

	gotKeyID   int64
	gotVCode   string
	gotAccount string
	gotChars   []domain.Character
}

func (m *mockReconciler) UpsertKeyAndReconcile(
	ctx context.Context,
	keyID int64,
	vcode string,
	account string,
	chars []domain.Character,
) (*store.ReconcileSummary, error) {
	m.calls++
	m.gotKeyID = keyID
	m.gotVCode = vcode
	m.gotAccount = account
	m.gotChars = chars
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

// capturePublisher records published results
type capturePublisher struct {
	mu      sync.Mutex
	results []KeyLookupResult
}

func (p *capturePublisher) Publish(result KeyLookupResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *capturePublisher) all() []KeyLookupResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]KeyLookupResult(nil), p.results...)
}

func TestNewKeyLookupTask_Validation(t *testing.T) {
	request := NewKeyLookupRequest(42, "abc", "Pilot")
	verifier := &mockVerifier{}
	reconciler := &mockReconciler{}
	publisher := &capturePublisher{}
	logger := setupTestLogger()

	cases := []struct {
		name        string
		request     KeyLookupRequest
		verifier    KeyVerifier
		reconciler  KeyReconciler
		publisher   ResultPublisher
		expectedErr error
	}{
		{"nil verifier", request, nil, reconciler, publisher, ErrNilVerifier},
		{"nil reconciler", request, verifier, nil, publisher, ErrNilReconciler},
		{"nil publisher", request, verifier, reconciler, nil, ErrNilResults},
		{
			"zero key id",
			NewKeyLookupRequest(0, "abc", "Pilot"),
			verifier, reconciler, publisher, domain.ErrInvalidKeyID,
		},
		{
			"empty vcode",
			NewKeyLookupRequest(42, "", "Pilot"),
			verifier, reconciler, publisher, domain.ErrEmptyVCode,
		},
		{
			"blank account",
			NewKeyLookupRequest(42, "abc", "   "),
			verifier, reconciler, publisher, domain.ErrEmptyAccount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task, err := NewKeyLookupTask(tc.request, tc.verifier, tc.reconciler, tc.publisher, logger)
			assert.Nil(t, task)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}

	_, err := NewKeyLookupTask(request, verifier, reconciler, publisher, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestKeyLookupTask_Success(t *testing.T) {
	request := NewKeyLookupRequest(42, "abc", "Pilot")
	verifier := &mockVerifier{
		chars: []domain.Character{{Name: "Jane Doe", Corporation: "Goons"}},
	}
	reconciler := &mockReconciler{
		summary: &store.ReconcileSummary{
			Account:    "pilot",
			KeyID:      42,
			Characters: []string{"Jane Doe"},
			Created:    1,
		},
	}
	publisher := &capturePublisher{}

	task, err := NewKeyLookupTask(request, verifier, reconciler, publisher, setupTestLogger())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.Equal(t, TaskTypeKeyLookup, task.Type())

	err = task.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, task.Status())

	// The reconciler received the request payload verbatim
	assert.Equal(t, int64(42), reconciler.gotKeyID)
	assert.Equal(t, "abc", reconciler.gotVCode)
	assert.Equal(t, "Pilot", reconciler.gotAccount)
	assert.Equal(t, verifier.chars, reconciler.gotChars)

	results := publisher.all()
	require.Len(t, results, 1, "success must produce exactly one result")
	assert.Equal(t, request.ID, results[0].Request.ID)
	assert.False(t, results[0].Failed)
	assert.Equal(t, "1 characters added: Jane Doe", results[0].Message)
	require.NotNil(t, results[0].Summary)
	assert.Equal(t, []string{"Jane Doe"}, results[0].Summary.Characters)
}

func TestKeyLookupTask_InvalidKey(t *testing.T) {
	request := NewKeyLookupRequest(42, "abc", "Pilot")
	verifier := &mockVerifier{err: fmt.Errorf("provider said no: %w", ErrInvalidKey)}
	reconciler := &mockReconciler{}
	publisher := &capturePublisher{}

	task, err := NewKeyLookupTask(request, verifier, reconciler, publisher, setupTestLogger())
	require.NoError(t, err)

	err = task.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, TaskStatusFailed, task.Status())
	assert.Equal(t, 0, reconciler.calls, "no persistence on a rejected key")

	results := publisher.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Equal(t, "Invalid key.", results[0].Message)
	assert.Nil(t, results[0].Summary)
}

func TestKeyLookupTask_ProviderUnreachable(t *testing.T) {
	request := NewKeyLookupRequest(42, "abc", "Pilot")
	verifier := &mockVerifier{err: ErrProviderUnreachable}
	reconciler := &mockReconciler{}
	publisher := &capturePublisher{}

	task, err := NewKeyLookupTask(request, verifier, reconciler, publisher, setupTestLogger())
	require.NoError(t, err)

	err = task.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, TaskStatusFailed, task.Status())

	results := publisher.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Equal(t, "Failed to load API key 42.", results[0].Message,
		"unreachable message must reference the key id")
}

func TestKeyLookupTask_DatabaseError(t *testing.T) {
	request := NewKeyLookupRequest(42, "abc", "Pilot")
	verifier := &mockVerifier{
		chars: []domain.Character{{Name: "Jane Doe", Corporation: "Goons"}},
	}
	reconciler := &mockReconciler{err: errors.New("connection reset")}
	publisher := &capturePublisher{}

	task, err := NewKeyLookupTask(request, verifier, reconciler, publisher, setupTestLogger())
	require.NoError(t, err)

	err = task.Execute(context.Background())
	assert.Error(t, err)
	assert.Equal(t, TaskStatusFailed, task.Status())
	assert.Equal(t, 1, verifier.calls, "verification is not repeated after a storage failure")

	results := publisher.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Equal(t, "Database error, try again later.", results[0].Message)
}
