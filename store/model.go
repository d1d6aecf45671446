package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound reports a lookup miss. FindUsable also returns it for records
// that exist but are revoked or past their expiry.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateEmail reports a unique-constraint violation on user creation.
var ErrDuplicateEmail = errors.New("store: email already registered")

// User is the persisted account record.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate reports whether the account may log in.
func (u *User) CanAuthenticate() bool {
	return u != nil && u.IsActive
}

// RefreshTokenRecord is the persisted trace of one issued refresh token.
// Only the SHA-256 digest of the raw token is stored; revocation flips a
// flag in place and records are never deleted.
type RefreshTokenRecord struct {
	ID          string
	UserID      string
	TokenDigest string
	ExpiresAt   time.Time
	Revoked     bool
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id string) error
}

// TokenStore persists refresh token records.
type TokenStore interface {
	Create(ctx context.Context, record *RefreshTokenRecord) (*RefreshTokenRecord, error)
	// FindUsable returns the record for a digest only while it is unrevoked
	// and unexpired.
	FindUsable(ctx context.Context, tokenDigest string) (*RefreshTokenRecord, error)
	RevokeByDigest(ctx context.Context, tokenDigest string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Digest returns the hex SHA-256 of a raw refresh token, the only form in
// which tokens are ever written to a store.
func Digest(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
