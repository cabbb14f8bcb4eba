package storage

import (
	"context"
)

// Record is the credential record persisted between sessions. It either
// contains everything a session needs or must be treated as absent:
// partial states are never trusted and evaluate as expired.
type Record struct {
	// AccessToken is the bearer credential attached to authenticated calls.
	AccessToken string
	// RefreshToken is the long-lived credential used solely to mint new
	// access tokens.
	RefreshToken string
	// TokenType is the authorization scheme label, e.g. "Bearer".
	TokenType string
	// ExpiresIn is the access token TTL in seconds, as issued.
	ExpiresIn int64
	// RefreshExpiresIn is the refresh token TTL in seconds. Stored but not
	// independently enforced on the client.
	RefreshExpiresIn int64
	// IssuedAt is the client-observed write time in milliseconds since
	// epoch. Expiry is computed from it locally, never from server clocks.
	IssuedAt int64
}

// IsZero reports whether no credential fields are set at all.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Store persists the credential record plus the cached user profile.
// Save overwrites the whole record, Read returns whatever fields are
// present (zero values for the rest) and Clear wipes everything
// unconditionally. Only the refresh operation and explicit logout are
// allowed to write.
type Store interface {
	Save(ctx context.Context, record Record) error
	Read(ctx context.Context) Record
	Clear(ctx context.Context) error

	SaveProfile(ctx context.Context, profile []byte) error
	ReadProfile(ctx context.Context) []byte
}
