package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_refresh_tokens (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	token_digest TEXT NOT NULL UNIQUE,
	expires_at   TIMESTAMPTZ NOT NULL,
	revoked      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_auth_refresh_tokens_user_id
	ON auth_refresh_tokens (user_id);
`

// EnsureSchema creates the tables this package reads and writes. It is
// idempotent and intended for embedded setups; production deployments run
// their own migrations.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// PostgresUserStore implements UserStore on database/sql.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore wraps an open connection pool.
func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, user *User) (*User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash, full_name, is_active, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.IsActive,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	created := *user
	return &created, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, full_name, is_active, created_at, updated_at
		FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, full_name, is_active, created_at, updated_at
		FROM users WHERE email = lower($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresUserStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &user, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, user *User) (*User, error) {
	const query = `
		UPDATE users
		SET email = lower($2), password_hash = $3, full_name = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.IsActive, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("store: update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	updated := *user
	return &updated, nil
}

func (s *PostgresUserStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresTokenStore implements TokenStore on database/sql.
type PostgresTokenStore struct {
	db *sql.DB
}

// NewPostgresTokenStore wraps an open connection pool.
func NewPostgresTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) Create(ctx context.Context, record *RefreshTokenRecord) (*RefreshTokenRecord, error) {
	const query = `
		INSERT INTO auth_refresh_tokens (id, user_id, token_digest, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.UserID, record.TokenDigest, record.ExpiresAt, record.Revoked)
	if err != nil {
		return nil, fmt.Errorf("store: create refresh token: %w", err)
	}
	created := *record
	return &created, nil
}

func (s *PostgresTokenStore) FindUsable(ctx context.Context, tokenDigest string) (*RefreshTokenRecord, error) {
	const query = `
		SELECT id, user_id, token_digest, expires_at, revoked
		FROM auth_refresh_tokens
		WHERE token_digest = $1 AND revoked = FALSE AND expires_at > now()`
	var record RefreshTokenRecord
	err := s.db.QueryRowContext(ctx, query, tokenDigest).Scan(
		&record.ID, &record.UserID, &record.TokenDigest, &record.ExpiresAt, &record.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find refresh token: %w", err)
	}
	return &record, nil
}

func (s *PostgresTokenStore) RevokeByDigest(ctx context.Context, tokenDigest string) error {
	const query = `UPDATE auth_refresh_tokens SET revoked = TRUE WHERE token_digest = $1`
	if _, err := s.db.ExecContext(ctx, query, tokenDigest); err != nil {
		return fmt.Errorf("store: revoke refresh token: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	const query = `UPDATE auth_refresh_tokens SET revoked = TRUE WHERE user_id = $1`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("store: revoke user refresh tokens: %w", err)
	}
	return nil
}
