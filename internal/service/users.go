package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/audit"
	pkgcrypto "github.com/and161185/devfolio/internal/crypto"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
)

// UpdateUserInput is a partial profile update. Password is plaintext and is
// hashed before it reaches the store.
type UpdateUserInput struct {
	Username          *string
	Email             *string
	Password          *string
	Bio               *string
	GithubURL         *string
	LinkedinURL       *string
	PortfolioURL      *string
	ProfilePictureURL *string
}

// UserService manages accounts after registration. Callers are expected to
// have passed the authorization gate for the target user.
type UserService struct {
	users repository.UserRepository
	audit *audit.Recorder
	log   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users repository.UserRepository, rec *audit.Recorder, log *zap.Logger) *UserService {
	return &UserService{users: users, audit: rec, log: log}
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]model.User, error) { return s.users.List(ctx) }

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByUsername looks an account up by its trimmed username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, strings.TrimSpace(username))
}

// Update applies the patch, rotating the digest when a new password is given.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	p := model.UserPatch{
		Username: in.Username, Bio: in.Bio, GithubURL: in.GithubURL, LinkedinURL: in.LinkedinURL,
		PortfolioURL: in.PortfolioURL, ProfilePictureURL: in.ProfilePictureURL,
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		p.Email = &e
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: empty password", errs.ErrBadRequest)
		}
		digest, err := pkgcrypto.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		p.PwdHash = &digest
	}
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return nil, fmt.Errorf("%w: empty username", errs.ErrBadRequest)
	}
	if p.Empty() {
		return s.users.GetByID(ctx, id)
	}
	return s.users.Update(ctx, id, p)
}

// Delete removes the account; its refresh tokens are revoked in the same transaction.
func (s *UserService) Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.String("user_id", id.String()), zap.String("actor_id", actor.ID.String()))
	s.audit.Record(ctx, audit.Event{Type: audit.EventAccountDeleted, UserID: id.String(), ActorID: actor.ID.String()})
	return nil
}

// SetRole changes the role of a user. Takes effect on the user's next request.
func (s *UserService) SetRole(ctx context.Context, actor model.Identity, id uuid.UUID, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrBadRequest, role)
	}
	u, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		Type: audit.EventRoleChanged, UserID: id.String(), ActorID: actor.ID.String(), Detail: string(role),
	})
	return u, nil
}
