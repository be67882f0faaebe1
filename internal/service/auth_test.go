package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/devfolio/internal/audit"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/limiter"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository/memory"
	"github.com/and161185/devfolio/internal/token"
)

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
	subjects     []string
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(_ context.Context, subject string, _ []byte) (bool, time.Duration, error) {
	l.allowCalls++
	l.subjects = append(l.subjects, subject)
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakePublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *fakePublisher) Publish(_ context.Context, e audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}
func (p *fakePublisher) Close() error { return nil }


type env struct {
	store    *memory.Store
	issuer   *token.Issuer
	lim      *fakeLimiter
	pub      *fakePublisher
	rec      *audit.Recorder
	auth     *AuthServiceImpl
	resolver *IdentityResolver
	users    *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.New()
	issuer := token.NewIssuer([]byte("test-secret"), 15*time.Minute)
	lim := &fakeLimiter{allowOK: true}
	pub := &fakePublisher{}
	rec := audit.NewRecorder(pub, log)
	return &env{
		store:    store,
		issuer:   issuer,
		lim:      lim,
		pub:      pub,
		rec:      rec,
		auth:     NewAuthService(store.Users(), store.RefreshTokens(), issuer, 7*24*time.Hour, lim, rec, log),
		resolver: NewIdentityResolver(store.Users(), issuer),
		users:    NewUserService(store.Users(), rec, log),
	}
}

// events stops the recorder and returns what it delivered.
func (e *env) events(t *testing.T) []audit.Event {
	t.Helper()
	require.NoError(t, e.rec.Close(context.Background()))
	e.pub.mu.Lock()
	defer e.pub.mu.Unlock()
	return append([]audit.Event(nil), e.pub.events...)
}

func eventTypes(events []audit.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func (e *env) register(t *testing.T, username, email, password string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, RegisterInput{Username: "", Email: "a@x.com", Password: "p"})
	require.ErrorIs(t, err, errs.ErrBadRequest)

	u := e.register(t, "alice", " Alice@X.com ", "secret1")
	require.Equal(t, "alice@x.com", u.Email)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEqual(t, "secret1", u.PwdHash)

	_, err = e.auth.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "p"})
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = e.auth.Register(ctx, RegisterInput{Username: "other", Email: "alice@x.com", Password: "p"})
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestAuth_Login_ClaimsMatchIdentity(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.register(t, "alice", "alice@x.com", "secret1")

	tokens, got, err := e.auth.Login(context.Background(), "alice@x.com", "secret1", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, tokens.RefreshToken)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), tokens.ExpiresAt, 5*time.Second)

	claims, err := e.issuer.VerifyAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	sub, err := claims.SubjectID()
	require.NoError(t, err)
	require.Equal(t, u.ID, sub)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "alice", claims.Username)

	require.Equal(t, 1, e.lim.successCalls)
	require.Equal(t, []string{audit.EventLogin}, eventTypes(e.events(t)))
}

func TestAuth_Login_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "alice", "alice@x.com", "secret1")
	ctx := context.Background()

	_, _, errWrongPwd := e.auth.Login(ctx, "alice@x.com", "nope", "ip")
	_, _, errNoUser := e.auth.Login(ctx, "bob@x.com", "secret1", "ip")
	_, _, errBoth := e.auth.Login(ctx, "bob@x.com", "nope", "ip")

	for _, err := range []error{errWrongPwd, errNoUser, errBoth} {
		require.ErrorIs(t, err, errs.ErrInvalidCredentials)
		require.Equal(t, errWrongPwd.Error(), err.Error())
		require.Equal(t, errs.CodeUnauthenticated, errs.Code(err))
	}
	require.Equal(t, 3, e.lim.failureCalls)
}

func TestAuth_Login_RateLimiter(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "alice", "alice@x.com", "secret1")
	ctx := context.Background()

	e.lim.allowOK = false
	_, _, err := e.auth.Login(ctx, "ALICE@x.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)
	require.Equal(t, []string{"alice@x.com"}, e.lim.subjects)

	e.lim.allowOK = true
	e.lim.failBlocked = true
	_, _, err = e.auth.Login(ctx, "alice@x.com", "bad", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	e.lim.allowOK = true
	e.lim.allowErr = errors.New("db down")
	_, _, err = e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.Error(t, err)
	require.Equal(t, errs.CodeInternal, errs.Code(err))
}

func TestAuth_Login_CorruptDigest(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.register(t, "alice", "alice@x.com", "secret1")
	broken := "not-a-bcrypt-digest"
	_, err := e.store.Users().Update(context.Background(), u.ID, model.UserPatch{PwdHash: &broken})
	require.NoError(t, err)

	_, _, err = e.auth.Login(context.Background(), "alice@x.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	require.Equal(t, errs.CodeUnauthenticated, errs.Code(err))
	require.Equal(t, 1, e.lim.failureCalls)
	require.Zero(t, e.lim.successCalls)
	require.Equal(t, []string{audit.EventLoginFailed}, eventTypes(e.events(t)))
}

// register alice, login, refresh, logout, refresh again.
func TestAuth_AliceLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "alice@x.com", "secret1")

	first, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)

	refreshed, err := e.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.Empty(t, refreshed.RefreshToken, "refresh token is not rotated")
	id, err := e.resolver.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, id.ID)

	require.NoError(t, e.auth.Logout(ctx, first.RefreshToken))
	_, err = e.auth.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)

	second, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	for i := 0; i < 3; i++ {
		_, err = e.auth.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
	}
	_, err = e.auth.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	events := e.events(t)
	require.Equal(t,
		[]string{audit.EventLogin, audit.EventRefresh, audit.EventLogout, audit.EventLogin, audit.EventRefresh},
		eventTypes(events))
	for _, ev := range events {
		require.Equal(t, u.ID.String(), ev.UserID, ev.Type)
	}
}

func TestAuth_Logout_AlwaysSucceeds(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.auth.Logout(ctx, ""))
	require.NoError(t, e.auth.Logout(ctx, "never-issued"))

	e.register(t, "alice", "alice@x.com", "secret1")
	tokens, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)
	require.NoError(t, e.auth.Logout(ctx, tokens.RefreshToken))
	require.NoError(t, e.auth.Logout(ctx, tokens.RefreshToken))
}

func TestAuth_Refresh_ReadsCurrentRole(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "alice", "alice@x.com", "secret1")
	tokens, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)

	_, err = e.users.SetRole(ctx, model.Identity{}, u.ID, model.RoleAdmin)
	require.NoError(t, err)

	refreshed, err := e.auth.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := e.issuer.VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role)
}

func TestAuth_Refresh_UnknownAndDeleted(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Refresh(ctx, "")
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
	_, err = e.auth.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)

	u := e.register(t, "alice", "alice@x.com", "secret1")
	tokens, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)
	require.NoError(t, e.users.Delete(ctx, u.Identity(), u.ID))

	_, err = e.auth.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
}

func TestAuth_Refresh_Expired(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "alice@x.com", "secret1")
	tokens, _, err := e.auth.Login(ctx, "alice@x.com", "secret1", "ip")
	require.NoError(t, err)

	e.store.SetClock(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	_, err = e.auth.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
}
