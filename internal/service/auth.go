// Package service contains application services for authentication and portfolio content.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/audit"
	pkgcrypto "github.com/and161185/devfolio/internal/crypto"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/limiter"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
	"github.com/and161185/devfolio/internal/token"
)

// AuthService defines credential issuance and lifecycle operations.
type AuthService interface {
	// Register creates a new account with the default role.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	// Login authenticates by email and password, rate limited per (email, ip).
	Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// Refresh mints a new access token from an active refresh token.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, error)
	// Logout revokes a refresh token. Unknown or revoked tokens are not an error.
	Logout(ctx context.Context, refreshToken string) error
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	users      repository.UserRepository
	refresh    repository.RefreshTokenRepository
	issuer     *token.Issuer
	refreshTTL time.Duration
	lim        limiter.Limiter
	audit      *audit.Recorder
	log        *zap.Logger
	now        func() time.Time

	// dummyDigest is verified against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyDigest string
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	refresh repository.RefreshTokenRepository,
	issuer *token.Issuer,
	refreshTTL time.Duration,
	lim limiter.Limiter,
	rec *audit.Recorder,
	log *zap.Logger,
) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	dummy, _ := pkgcrypto.HashPassword("devfolio-unknown-account")
	return &AuthServiceImpl{
		users: users, refresh: refresh, issuer: issuer, refreshTTL: refreshTTL,
		lim: lim, audit: rec, log: log, now: time.Now, dummyDigest: dummy,
	}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Register hashes the password and stores the account with role "user".
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", errs.ErrBadRequest)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	digest, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: uid, Username: in.Username, Email: in.Email, PwdHash: digest}
	if err := s.users.Create(ctx, u, model.RoleUser); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", uid.String()))
	return u, nil
}

// Login authenticates with rate limiting by (email, ip). Unknown email and
// wrong password produce the same ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		_, _ = pkgcrypto.VerifyPassword(password, s.dummyDigest)
		return s.loginFailed(ctx, email, ipHash, uuid.Nil)
	case err != nil:
		return model.Tokens{}, model.User{}, err
	}

	ok, err := pkgcrypto.VerifyPassword(password, u.PwdHash)
	if err != nil {
		// answered like a wrong password so the account's existence stays hidden
		s.log.Error("stored password digest is unreadable", zap.String("user_id", u.ID.String()), zap.Error(err))
		return s.loginFailed(ctx, email, ipHash, u.ID)
	}
	if !ok {
		return s.loginFailed(ctx, email, ipHash, u.ID)
	}

	if err := s.lim.Success(ctx, email, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}

	tokens, err := s.issuePair(ctx, u.Identity())
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventLogin, UserID: u.ID.String()})
	return tokens, *u, nil
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, email string, ipHash []byte, uid uuid.UUID) (model.Tokens, model.User, error) {
	ev := audit.Event{Type: audit.EventLoginFailed}
	if uid != uuid.Nil {
		ev.UserID = uid.String()
	}
	s.audit.Record(ctx, ev)

	blocked, _, err := s.lim.Failure(ctx, email, ipHash)
	if err != nil {
		s.log.Warn("limiter failure record failed", zap.Error(err))
	}
	if blocked {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}
	return model.Tokens{}, model.User{}, errs.ErrInvalidCredentials
}

// issuePair signs an access token and persists a fresh refresh token.
func (s *AuthServiceImpl) issuePair(ctx context.Context, id model.Identity) (model.Tokens, error) {
	access, exp, err := s.issuer.IssueAccessToken(id)
	if err != nil {
		return model.Tokens{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL)
	// a collision is practically impossible; one retry keeps it a safety net
	for attempt := 0; ; attempt++ {
		refresh, err := token.NewRefreshToken()
		if err != nil {
			return model.Tokens{}, err
		}
		err = s.refresh.Persist(ctx, refresh, id.ID, expiresAt)
		if err == nil {
			return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
		}
		if !errors.Is(err, errs.ErrConflict) || attempt > 0 {
			return model.Tokens{}, err
		}
	}
}

// Refresh issues a new access token. The refresh token itself is not rotated.
// The role in the new token is read from the store, not from the old token.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	if refreshToken == "" {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}
	rec, err := s.refresh.LookupActive(ctx, refreshToken)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}
	if err != nil {
		return model.Tokens{}, err
	}
	id, err := s.users.GetIdentity(ctx, rec.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, errs.ErrInvalidRefreshToken
	}
	if err != nil {
		return model.Tokens{}, err
	}
	access, exp, err := s.issuer.IssueAccessToken(id)
	if err != nil {
		return model.Tokens{}, err
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventRefresh, UserID: id.ID.String()})
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}

// Logout revokes the token. The caller sees success whether or not a row changed.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	owner, changed, err := s.refresh.Revoke(ctx, refreshToken)
	if err != nil {
		return err
	}
	if !changed {
		s.log.Debug("logout with unknown or already revoked token")
		return nil
	}
	s.audit.Record(ctx, audit.Event{Type: audit.EventLogout, UserID: owner.String()})
	return nil
}
