package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/devfolio/internal/model"
)

// RefreshRepo is the refresh token ledger backed by the refresh_tokens table.
type RefreshRepo struct{ db *DB }

// NewRefreshRepo constructs the ledger.
func NewRefreshRepo(db *DB) *RefreshRepo { return &RefreshRepo{db: db} }

// Persist inserts a new ledger record.
func (r *RefreshRepo) Persist(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Pool.Exec(ctx, q, token, userID, expiresAt); err != nil {
		return mapWriteErr(err, "persist refresh token")
	}
	return nil
}

// LookupActive returns the record only if it is neither revoked nor expired.
// Unknown, revoked and expired tokens all come back as errs.ErrNotFound.
func (r *RefreshRepo) LookupActive(ctx context.Context, token string) (*model.RefreshToken, error) {
	const q = `
SELECT token, user_id, expires_at, revoked, created_at
FROM refresh_tokens
WHERE token = $1 AND revoked = FALSE AND expires_at > now()`
	var rt model.RefreshToken
	err := r.db.Pool.QueryRow(ctx, q, token).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.Revoked, &rt.CreatedAt)
	if err != nil {
		return nil, mapRowErr(err, "lookup refresh token")
	}
	return &rt, nil
}

// Revoke marks the token revoked and returns its owner. An unknown or
// already revoked token is (uuid.Nil, false, nil).
func (r *RefreshRepo) Revoke(ctx context.Context, token string) (uuid.UUID, bool, error) {
	const q = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND revoked = FALSE RETURNING user_id`
	var userID uuid.UUID
	err := r.db.Pool.QueryRow(ctx, q, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return userID, true, nil
}
