package domain

// Character represents a character record returned by the verification
// provider and persisted locally. Character names are globally unique and
// serve as the primary key; the owning corporation may change between
// verifications and is updated in place.
type Character struct {
	Name        string `json:"name"`
	Corporation string `json:"corporation"`
}

// NewCharacter creates a new Character with the given name and corporation.
// Returns an error if validation fails.
func NewCharacter(name, corporation string) (*Character, error) {
	char := &Character{
		Name:        name,
		Corporation: corporation,
	}

	if err := char.Validate(); err != nil {
		return nil, err
	}

	return char, nil
}

// Validate checks if the Character has valid data.
func (c *Character) Validate() error {
	if c.Name == "" {
		return ErrEmptyCharacterName
	}
	if c.Corporation == "" {
		return ErrEmptyCorporation
	}
	return nil
}
