// Package session defines where revoked session tokens are remembered until they expire.
package session

import (
	"context"
	"time"
)

// Store remembers revoked session token IDs.
type Store interface {
	// Revoke marks tokenID as revoked until the token expires. Revoking an already expired token is a no-op.
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
