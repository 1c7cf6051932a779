package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/evekey-api/internal/domain"
)

// ReconcileSummary describes the outcome of a key reconciliation: the set of
// characters now associated with the key, plus what changed to get there.
type ReconcileSummary struct {
	Account    string   // normalized owning account
	KeyID      int64    // the reconciled key
	Characters []string // names now associated with the key, in result order
	Created    int      // characters newly created and attached
	Updated    int      // characters whose corporation changed
	Detached   int      // characters removed from the key's set
}

// Message renders the summary as the user-facing success line.
func (s *ReconcileSummary) Message() string {
	return fmt.Sprintf("%d characters added: %s",
		len(s.Characters), strings.Join(s.Characters, ", "))
}

// KeyStore defines the interface for API key persistence. It owns the
// relational graph of accounts, keys, and characters, including the two
// association tables, and is the sole writer path to it.
type KeyStore interface {
	// UpsertKeyAndReconcile durably associates a verified key and its
	// character set with an account as one atomic unit:
	//
	//   - finds-or-creates the account row (normalized name, not admin);
	//   - finds-or-creates the key row, overwriting the vcode if the key
	//     already exists, and stamps last_checked;
	//   - ensures the account-key association;
	//   - reconciles the key's character set against chars, keyed by name:
	//     missing characters are detached from the key, changed ones are
	//     updated in place, new ones are created and attached. Character
	//     rows themselves are retained even when no longer attached to any
	//     key, since names are a global identity that may be referenced
	//     historically.
	//
	// On any failure the transaction is rolled back and the returned error
	// wraps ErrReconcileFailed; no partial state is ever visible.
	UpsertKeyAndReconcile(
		ctx context.Context,
		keyID int64,
		vcode string,
		account string,
		chars []domain.Character,
	) (*ReconcileSummary, error)

	// GetAccount retrieves an account by its (case-insensitive) name.
	// Returns ErrAccountNotFound if the account does not exist.
	GetAccount(ctx context.Context, account string) (*domain.Account, error)

	// GetKey retrieves an API key by its id.
	// Returns ErrKeyNotFound if the key does not exist.
	GetKey(ctx context.Context, keyID int64) (*domain.APIKey, error)

	// CharactersForKey returns the characters currently associated with the
	// given key, ordered by name. Returns ErrKeyNotFound if the key does
	// not exist.
	CharactersForKey(ctx context.Context, keyID int64) ([]domain.Character, error)
}
