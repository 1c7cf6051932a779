package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/store"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestNewPostgresKeyStore(t *testing.T) {
	db, _ := newMockDB(t)

	s := NewPostgresKeyStore(db, nil)
	assert.NotNil(t, s)
	assert.NotNil(t, s.logger, "nil logger should fall back to the default")

	assert.Panics(t, func() { NewPostgresKeyStore(nil, nil) })
}

func TestUpsertKeyAndReconcile_RejectsInvalidInput(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)
	ctx := context.Background()

	cases := []struct {
		name    string
		keyID   int64
		vcode   string
		account string
		chars   []domain.Character
	}{
		{"empty account", 42, "abc", "   ", nil},
		{"zero key id", 0, "abc", "pilot", nil},
		{"empty vcode", 42, "", "pilot", nil},
		{"invalid character", 42, "abc", "pilot", []domain.Character{{Name: "", Corporation: "Goons"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary, err := s.UpsertKeyAndReconcile(ctx, tc.keyID, tc.vcode, tc.account, tc.chars)
			assert.Nil(t, summary)
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
		})
	}
}

func TestUpsertKeyAndReconcile_NewKey(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("pilot", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO api_keys").
		WithArgs(int64(42), "abc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO account_api_keys").
		WithArgs("pilot", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.name, c.corporation")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "corporation"}))
	mock.ExpectExec("INSERT INTO characters").
		WithArgs("Jane Doe", "Goons").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO api_key_characters").
		WithArgs(int64(42), "Jane Doe").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := s.UpsertKeyAndReconcile(
		context.Background(),
		42, "abc", "Pilot",
		[]domain.Character{{Name: "Jane Doe", Corporation: "Goons"}},
	)

	require.NoError(t, err)
	assert.Equal(t, "pilot", summary.Account, "account must be normalized")
	assert.Equal(t, int64(42), summary.KeyID)
	assert.Equal(t, []string{"Jane Doe"}, summary.Characters)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 0, summary.Detached)
	assert.Equal(t, "1 characters added: Jane Doe", summary.Message())

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Character set moves from {Alice, Bob} to {Bob, Carol} with Bob changing
// corporation: Alice is detached, Bob updated in place, Carol attached.
func TestUpsertKeyAndReconcile_SetChange(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("pilot", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0)) // account already exists
	mock.ExpectExec("INSERT INTO api_keys").
		WithArgs(int64(42), "rotated", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO account_api_keys").
		WithArgs("pilot", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.name, c.corporation")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "corporation"}).
			AddRow("Alice", "Corp A").
			AddRow("Bob", "Corp A"))
	// Bob changed corporation
	mock.ExpectExec("UPDATE characters").
		WithArgs("Bob", "Corp B").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Carol is new
	mock.ExpectExec("INSERT INTO characters").
		WithArgs("Carol", "Corp B").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO api_key_characters").
		WithArgs(int64(42), "Carol").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Alice is gone from the snapshot
	mock.ExpectExec("DELETE FROM api_key_characters").
		WithArgs(int64(42), "Alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := s.UpsertKeyAndReconcile(
		context.Background(),
		42, "rotated", "pilot",
		[]domain.Character{
			{Name: "Bob", Corporation: "Corp B"},
			{Name: "Carol", Corporation: "Corp B"},
		},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Carol"}, summary.Characters)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Detached)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertKeyAndReconcile_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	dbErr := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("pilot", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO api_keys").
		WithArgs(int64(42), "abc", sqlmock.AnyArg()).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	summary, err := s.UpsertKeyAndReconcile(context.Background(), 42, "abc", "pilot", nil)

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, store.ErrReconcileFailed)
	assert.ErrorIs(t, err, store.ErrTransactionFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	created := time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account, is_admin, created_at")).
		WithArgs("pilot").
		WillReturnRows(sqlmock.NewRows([]string{"account", "is_admin", "created_at"}).
			AddRow("pilot", false, created))

	// Lookup normalizes the name before querying
	account, err := s.GetAccount(context.Background(), "  Pilot ")
	require.NoError(t, err)
	assert.Equal(t, "pilot", account.Account)
	assert.False(t, account.IsAdmin)
	assert.Equal(t, created, account.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT account, is_admin, created_at")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetKey(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	checked := time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key_id, vcode, last_checked")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"key_id", "vcode", "last_checked"}).
			AddRow(int64(42), "abc", checked))

	key, err := s.GetKey(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), key.KeyID)
	assert.Equal(t, "abc", key.VCode)
	require.NotNil(t, key.LastChecked)
	assert.Equal(t, checked, *key.LastChecked)

	// Null last_checked maps to nil
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key_id, vcode, last_checked")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key_id", "vcode", "last_checked"}).
			AddRow(int64(7), "xyz", nil))

	key, err = s.GetKey(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, key.LastChecked)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key_id, vcode, last_checked")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetKey(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCharactersForKey(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresKeyStore(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key_id, vcode, last_checked")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"key_id", "vcode", "last_checked"}).
			AddRow(int64(42), "abc", nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.name, c.corporation")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "corporation"}).
			AddRow("Alice", "Corp A").
			AddRow("Bob", "Corp B"))

	chars, err := s.CharactersForKey(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, domain.Character{Name: "Alice", Corporation: "Corp A"}, chars[0])
	assert.Equal(t, domain.Character{Name: "Bob", Corporation: "Corp B"}, chars[1])

	// Unknown key surfaces ErrKeyNotFound before querying characters
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key_id, vcode, last_checked")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err = s.CharactersForKey(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
