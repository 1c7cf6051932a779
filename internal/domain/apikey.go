package domain

import "time"

// APIKey represents an EVE API key: the key id issued by the provider plus
// the verification code ("vcode") that grants access to it. Key ids are
// stable; vcodes may be rotated, in which case the stored vcode is
// overwritten on the next successful verification.
type APIKey struct {
	KeyID       int64      `json:"key_id"`
	VCode       string     `json:"-"` // Never expose the verification code in JSON
	LastChecked *time.Time `json:"last_checked,omitempty"`
}

// NewAPIKey creates a new APIKey with the given id and verification code.
// Returns an error if validation fails.
func NewAPIKey(keyID int64, vcode string) (*APIKey, error) {
	key := &APIKey{
		KeyID: keyID,
		VCode: vcode,
	}

	if err := key.Validate(); err != nil {
		return nil, err
	}

	return key, nil
}

// Validate checks if the APIKey has valid data.
func (k *APIKey) Validate() error {
	if k.KeyID <= 0 {
		return ErrInvalidKeyID
	}
	if k.VCode == "" {
		return ErrEmptyVCode
	}
	return nil
}
