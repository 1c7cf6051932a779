package domain

import (
	"strings"
	"time"
)

// Account represents a local account on whose behalf API keys are verified.
// Account names are case-insensitive; they are stored lowercased.
type Account struct {
	Account   string    `json:"account"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeAccount lowercases and trims an account name. All lookups and
// writes go through this so "Pilot" and "pilot" resolve to the same row.
func NormalizeAccount(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewAccount creates a new, non-admin Account with a normalized name.
// Returns an error if the name is empty after normalization.
func NewAccount(name string) (*Account, error) {
	normalized := NormalizeAccount(name)
	if normalized == "" {
		return nil, ErrEmptyAccount
	}

	return &Account{
		Account:   normalized,
		IsAdmin:   false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks if the Account has valid data.
func (a *Account) Validate() error {
	if NormalizeAccount(a.Account) != a.Account {
		return ErrValidation
	}
	if a.Account == "" {
		return ErrEmptyAccount
	}
	return nil
}
