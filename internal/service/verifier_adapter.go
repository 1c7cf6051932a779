package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/phrazzld/evekey-api/internal/domain"
	"github.com/phrazzld/evekey-api/internal/platform/eveapi"
	"github.com/phrazzld/evekey-api/internal/task"
)

// VerifierAdapter adapts the eveapi client to the task.KeyVerifier
// interface, translating provider error kinds into the ones the task
// pipeline understands and flattening the result map into domain
// characters.
type VerifierAdapter struct {
	client *eveapi.Client
}

// NewVerifierAdapter creates a new adapter around the given client.
func NewVerifierAdapter(client *eveapi.Client) (*VerifierAdapter, error) {
	if client == nil {
		return nil, errors.New("eveapi client cannot be nil")
	}
	return &VerifierAdapter{client: client}, nil
}

// Ensure VerifierAdapter implements task.KeyVerifier
var _ task.KeyVerifier = (*VerifierAdapter)(nil)

// VerifyKey implements task.KeyVerifier. Characters are returned sorted by
// name so downstream summaries are deterministic.
func (a *VerifierAdapter) VerifyKey(ctx context.Context, keyID int64, vcode string) ([]domain.Character, error) {
	info, err := a.client.VerifyKey(ctx, keyID, vcode)
	if err != nil {
		switch {
		case errors.Is(err, eveapi.ErrInvalidKey):
			return nil, fmt.Errorf("%w: %v", task.ErrInvalidKey, err)
		case errors.Is(err, eveapi.ErrUnreachable):
			return nil, fmt.Errorf("%w: %v", task.ErrProviderUnreachable, err)
		default:
			return nil, err
		}
	}

	chars := make([]domain.Character, 0, len(info))
	for name, attrs := range info {
		chars = append(chars, domain.Character{
			Name:        name,
			Corporation: attrs.Corporation,
		})
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].Name < chars[j].Name })

	return chars, nil
}
