package service

import "github.com/google/uuid"

// TokenGenerator generates unique operation tokens for log correlation.
// Implemented by UUIDv7Generator (production) and testutil.TokenSequence
// (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 operation tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time - helpful when correlating operation logs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
