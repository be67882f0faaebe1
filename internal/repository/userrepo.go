// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/model"
)

// UserRepository is the credential store: identities and their role reference.
type UserRepository interface {
	// Create inserts a new user with the given role and fills generated fields.
	Create(ctx context.Context, u *model.User, role model.Role) error
	// GetByID loads a user (with role name) by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user (with role name and digest) by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetIdentity reads the current username and role for an id.
	GetIdentity(ctx context.Context, id uuid.UUID) (model.Identity, error)
	// List returns all users ordered by creation.
	List(ctx context.Context) ([]model.User, error)
	// Update applies a partial update and returns the fresh row.
	Update(ctx context.Context, id uuid.UUID, p model.UserPatch) (*model.User, error)
	// SetRole changes the role reference of a user.
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error)
	// Delete removes the user and revokes all of their refresh tokens atomically.
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenRepository is the refresh token ledger.
type RefreshTokenRepository interface {
	// Persist inserts a new record; ErrConflict on a duplicate token.
	Persist(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error
	// LookupActive returns the record only if it exists, is not revoked and has not expired.
	LookupActive(ctx context.Context, token string) (*model.RefreshToken, error)
	// Revoke flips revoked to true and returns the token's owner; false
	// means nothing changed and the owner is uuid.Nil.
	Revoke(ctx context.Context, token string) (uuid.UUID, bool, error)
}

// OwnerRepository reads the owner attribute of an ownable row.
type OwnerRepository interface {
	// OwnerOf returns the value of column in table for row id; ErrNotFound if absent.
	OwnerOf(ctx context.Context, table, column string, id uuid.UUID) (uuid.UUID, error)
}
