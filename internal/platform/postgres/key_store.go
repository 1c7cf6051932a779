package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/platform/logger"
	"github.com/phrazzld/evekey-api/internal/store"
)

// PostgresKeyStore implements the store.KeyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresKeyStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresKeyStore creates a new PostgreSQL implementation of the KeyStore
// interface. It accepts a database connection that should be initialized and
// managed by the caller. If logger is nil, a default logger will be used.
func NewPostgresKeyStore(db *sql.DB, logger *slog.Logger) *PostgresKeyStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresKeyStore{
		db:     db,
		logger: logger.With(slog.String("component", "key_store")),
	}
}

// Ensure PostgresKeyStore implements store.KeyStore interface
var _ store.KeyStore = (*PostgresKeyStore)(nil)

// UpsertKeyAndReconcile implements store.KeyStore.UpsertKeyAndReconcile.
// The whole operation runs inside a single transaction; any failure rolls
// it back and is reported as store.ErrReconcileFailed.
func (s *PostgresKeyStore) UpsertKeyAndReconcile(
	ctx context.Context,
	keyID int64,
	vcode string,
	account string,
	chars []domain.Character,
) (*store.ReconcileSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := domain.NormalizeAccount(account)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyAccount)
	}
	if keyID <= 0 {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidKeyID)
	}
	if vcode == "" {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyVCode)
	}
	for i := range chars {
		if err := chars[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	var summary *store.ReconcileSummary

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		summary, txErr = s.reconcileTx(ctx, tx, keyID, vcode, normalized, chars)
		return txErr
	})
	if err != nil {
		log.Error("key reconciliation failed",
			slog.Int64("key_id", keyID),
			slog.String("account", normalized),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", store.ErrReconcileFailed, MapError(err))
	}

	log.Info("key reconciled",
		slog.Int64("key_id", keyID),
		slog.String("account", normalized),
		slog.Int("characters", len(summary.Characters)),
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("detached", summary.Detached))
	return summary, nil
}

// reconcileTx performs the full account/key/character reconciliation inside
// the given transaction.
func (s *PostgresKeyStore) reconcileTx(
	ctx context.Context,
	tx *sql.Tx,
	keyID int64,
	vcode string,
	account string,
	chars []domain.Character,
) (*store.ReconcileSummary, error) {
	if _, err := s.ensureAccount(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	if err := s.upsertKey(ctx, tx, keyID, vcode); err != nil {
		return nil, fmt.Errorf("failed to upsert api key: %w", err)
	}

	if err := s.ensureAccountKey(ctx, tx, account, keyID); err != nil {
		return nil, fmt.Errorf("failed to associate key with account: %w", err)
	}

	current, err := charactersForKeyTx(ctx, tx, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current characters: %w", err)
	}

	summary := &store.ReconcileSummary{
		Account: account,
		KeyID:   keyID,
	}

	// Reconcile the key's character set against the fresh snapshot, keyed
	// by name. Characters carry over in snapshot order.
	incoming := make(map[string]bool, len(chars))
	for _, char := range chars {
		incoming[char.Name] = true
		summary.Characters = append(summary.Characters, char.Name)

		existing, known := current[char.Name]
		switch {
		case !known:
			if err := s.attachCharacter(ctx, tx, keyID, char); err != nil {
				return nil, fmt.Errorf("failed to attach character %q: %w", char.Name, err)
			}
			summary.Created++
		case existing.Corporation != char.Corporation:
			if err := s.updateCharacter(ctx, tx, char); err != nil {
				return nil, fmt.Errorf("failed to update character %q: %w", char.Name, err)
			}
			summary.Updated++
		}
	}

	// Characters absent from the snapshot lose their association with this
	// key. The character row itself is retained: names are a global
	// identity and may still be referenced by other keys or historically.
	for name := range current {
		if incoming[name] {
			continue
		}
		if err := s.detachCharacter(ctx, tx, keyID, name); err != nil {
			return nil, fmt.Errorf("failed to detach character %q: %w", name, err)
		}
		summary.Detached++
	}

	return summary, nil
}

// ensureAccount finds-or-creates the account row. New accounts are created
// non-admin. Returns whether a row was created. ON CONFLICT keeps the
// operation race-free: two concurrent reconciliations for the same account
// can never produce two rows.
func (s *PostgresKeyStore) ensureAccount(
	ctx context.Context,
	tx *sql.Tx,
	account string,
) (bool, error) {
	query := `
		INSERT INTO accounts (account, is_admin, created_at)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (account) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, account, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// upsertKey finds-or-creates the api_keys row. A pre-existing key keeps its
// id but gets the fresh vcode (vcodes rotate) and last_checked stamp.
func (s *PostgresKeyStore) upsertKey(ctx context.Context, tx *sql.Tx, keyID int64, vcode string) error {
	query := `
		INSERT INTO api_keys (key_id, vcode, last_checked)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_id) DO UPDATE
		SET vcode = EXCLUDED.vcode, last_checked = EXCLUDED.last_checked
	`
	_, err := tx.ExecContext(ctx, query, keyID, vcode, time.Now().UTC())
	return err
}

// ensureAccountKey idempotently records that the account holds the key.
func (s *PostgresKeyStore) ensureAccountKey(
	ctx context.Context,
	tx *sql.Tx,
	account string,
	keyID int64,
) error {
	query := `
		INSERT INTO account_api_keys (account, key_id)
		VALUES ($1, $2)
		ON CONFLICT (account, key_id) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, account, keyID)
	return err
}

// attachCharacter finds-or-creates the character row and links it to the
// key. The character may already exist globally (attached to another key),
// in which case its corporation is refreshed from the snapshot.
func (s *PostgresKeyStore) attachCharacter(
	ctx context.Context,
	tx *sql.Tx,
	keyID int64,
	char domain.Character,
) error {
	upsert := `
		INSERT INTO characters (name, corporation)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET corporation = EXCLUDED.corporation
	`
	if _, err := tx.ExecContext(ctx, upsert, char.Name, char.Corporation); err != nil {
		return err
	}

	link := `
		INSERT INTO api_key_characters (key_id, character_name)
		VALUES ($1, $2)
		ON CONFLICT (key_id, character_name) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, link, keyID, char.Name)
	return err
}

// updateCharacter refreshes a character's corporation in place.
func (s *PostgresKeyStore) updateCharacter(ctx context.Context, tx *sql.Tx, char domain.Character) error {
	query := `UPDATE characters SET corporation = $2 WHERE name = $1`
	_, err := tx.ExecContext(ctx, query, char.Name, char.Corporation)
	return err
}

// detachCharacter removes the key-character association only.
func (s *PostgresKeyStore) detachCharacter(
	ctx context.Context,
	tx *sql.Tx,
	keyID int64,
	name string,
) error {
	query := `DELETE FROM api_key_characters WHERE key_id = $1 AND character_name = $2`
	_, err := tx.ExecContext(ctx, query, keyID, name)
	return err
}

// charactersForKeyTx loads the characters currently associated with a key,
// keyed by name. Works against either a transaction or a bare connection.
func charactersForKeyTx(
	ctx context.Context,
	db store.DBTX,
	keyID int64,
) (map[string]domain.Character, error) {
	query := `
		SELECT c.name, c.corporation
		FROM characters c
		JOIN api_key_characters kc ON kc.character_name = c.name
		WHERE kc.key_id = $1
	`
	rows, err := db.QueryContext(ctx, query, keyID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	current := make(map[string]domain.Character)
	for rows.Next() {
		var char domain.Character
		if err := rows.Scan(&char.Name, &char.Corporation); err != nil {
			return nil, err
		}
		current[char.Name] = char
	}
	return current, rows.Err()
}

// GetAccount implements store.KeyStore.GetAccount
func (s *PostgresKeyStore) GetAccount(ctx context.Context, account string) (*domain.Account, error) {
	query := `
		SELECT account, is_admin, created_at
		FROM accounts
		WHERE account = $1
	`

	var result domain.Account
	err := s.db.QueryRowContext(ctx, query, domain.NormalizeAccount(account)).
		Scan(&result.Account, &result.IsAdmin, &result.CreatedAt)
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrAccountNotFound
		}
		return nil, MapError(err)
	}

	return &result, nil
}

// GetKey implements store.KeyStore.GetKey
func (s *PostgresKeyStore) GetKey(ctx context.Context, keyID int64) (*domain.APIKey, error) {
	query := `
		SELECT key_id, vcode, last_checked
		FROM api_keys
		WHERE key_id = $1
	`

	var key domain.APIKey
	var lastChecked sql.NullTime
	err := s.db.QueryRowContext(ctx, query, keyID).
		Scan(&key.KeyID, &key.VCode, &lastChecked)
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrKeyNotFound
		}
		return nil, MapError(err)
	}

	if lastChecked.Valid {
		checked := lastChecked.Time
		key.LastChecked = &checked
	}

	return &key, nil
}

// CharactersForKey implements store.KeyStore.CharactersForKey
func (s *PostgresKeyStore) CharactersForKey(ctx context.Context, keyID int64) ([]domain.Character, error) {
	if _, err := s.GetKey(ctx, keyID); err != nil {
		return nil, err
	}

	query := `
		SELECT c.name, c.corporation
		FROM characters c
		JOIN api_key_characters kc ON kc.character_name = c.name
		WHERE kc.key_id = $1
		ORDER BY c.name
	`
	rows, err := s.db.QueryContext(ctx, query, keyID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var chars []domain.Character
	for rows.Next() {
		var char domain.Character
		if err := rows.Scan(&char.Name, &char.Corporation); err != nil {
			return nil, MapError(err)
		}
		chars = append(chars, char)
	}
	return chars, rows.Err()
}
