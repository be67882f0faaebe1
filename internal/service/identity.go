package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
	"github.com/and161185/devfolio/internal/token"
)

// IdentityResolver turns a bearer token into the caller's current identity.
// The role comes from the store on every call; the role claim in the token
// is never trusted, so demotions and deletions apply to live tokens.
type IdentityResolver struct {
	users  repository.UserRepository
	issuer *token.Issuer
}

// NewIdentityResolver constructs an IdentityResolver.
func NewIdentityResolver(users repository.UserRepository, issuer *token.Issuer) *IdentityResolver {
	return &IdentityResolver{users: users, issuer: issuer}
}

// Resolve reads username and role for subjectID. A deleted account is unauthenticated.
func (r *IdentityResolver) Resolve(ctx context.Context, subjectID uuid.UUID) (model.Identity, error) {
	id, err := r.users.GetIdentity(ctx, subjectID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Identity{}, fmt.Errorf("%w: account no longer exists", errs.ErrUnauthenticated)
	}
	if err != nil {
		return model.Identity{}, err
	}
	return id, nil
}

// Authenticate verifies the raw access token and resolves its subject.
func (r *IdentityResolver) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, fmt.Errorf("%w: missing token", errs.ErrUnauthenticated)
	}
	claims, err := r.issuer.VerifyAccessToken(raw)
	if err != nil {
		return model.Identity{}, err
	}
	sub, err := claims.SubjectID()
	if err != nil {
		return model.Identity{}, err
	}
	return r.Resolve(ctx, sub)
}
