package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token is stored; the raw value goes back to the
// client once and is never persisted.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the raw token.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (nil while active).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}

// Active reports whether the token can still be exchanged at the given
// instant: not revoked and not past its expiry.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
