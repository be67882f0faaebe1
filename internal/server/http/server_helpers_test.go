package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/devfolio/internal/audit"
	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository/memory"
	"github.com/and161185/devfolio/internal/service"
	"github.com/and161185/devfolio/internal/token"
)

type testServer struct {
	t      *testing.T
	h      http.Handler
	store  *memory.Store
	issuer *token.Issuer
}

type serverOption func(*Options)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.New()
	issuer := token.NewIssuer([]byte("test-secret"), 15*time.Minute)
	rec := audit.NewRecorder(audit.Nop{}, log)
	t.Cleanup(func() { _ = rec.Close(context.Background()) })

	svc := service.Services{
		Auth:      service.NewAuthService(store.Users(), store.RefreshTokens(), issuer, time.Hour, nil, rec, log),
		Identity:  service.NewIdentityResolver(store.Users(), issuer),
		Users:     service.NewUserService(store.Users(), rec, log),
		Projects:  service.NewProjectService(store.Projects()),
		Posts:     service.NewBlogPostService(store.BlogPosts()),
		Skills:    service.NewSkillService(store.Skills()),
		Inquiries: service.NewInquiryService(store.Inquiries(), store.Users()),
	}
	o := Options{Addr: ":0", CORSOrigins: []string{"*"}}
	for _, f := range opts {
		f(&o)
	}
	gate := authz.NewGate(store.Owners(), log)
	srv := New(o, svc, gate, store, log)
	return &testServer{t: t, h: srv.Handler(), store: store, issuer: issuer}
}

func (s *testServer) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorBody {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[ErrorBody](t, rec)
	require.Equal(t, code, body.Code)
	return body
}

type account struct {
	ID      string
	Access  string
	Refresh string
}

// signup registers and logs in a user, optionally promoting them first.
func (s *testServer) signup(name string, role model.Role) account {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": name, "email": name + "@x.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[struct {
		User userJSON `json:"user"`
	}](s.t, rec)

	if role == model.RoleAdmin {
		_, err := s.store.Users().SetRole(context.Background(), reg.User.ID, model.RoleAdmin)
		require.NoError(s.t, err)
	}

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": name + "@x.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[loginResponse](s.t, rec)
	return account{ID: reg.User.ID.String(), Access: login.AccessToken, Refresh: login.RefreshToken}
}
