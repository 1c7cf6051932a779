package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyAccount is returned when an account name is empty after
	// normalization.
	ErrEmptyAccount = errors.New("account name cannot be empty")

	// ErrInvalidKeyID is returned when an API key id is zero or negative.
	ErrInvalidKeyID = errors.New("key id must be a positive integer")

	// ErrEmptyVCode is returned when an API key verification code is empty.
	ErrEmptyVCode = errors.New("verification code cannot be empty")

	// ErrEmptyCharacterName is returned when a character name is empty.
	ErrEmptyCharacterName = errors.New("character name cannot be empty")

	// ErrEmptyCorporation is returned when a character's corporation name
	// is empty.
	ErrEmptyCorporation = errors.New("corporation name cannot be empty")
)
