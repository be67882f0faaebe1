package gqlserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/devfolio/internal/audit"
	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository/memory"
	httpserver "github.com/and161185/devfolio/internal/server/http"
	"github.com/and161185/devfolio/internal/service"
	"github.com/and161185/devfolio/internal/token"
)

type env struct {
	t     *testing.T
	h     http.Handler
	store *memory.Store
}

func newEnv(t *testing.T, opts ...authz.Option) *env {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.New()
	issuer := token.NewIssuer([]byte("graphql-test-secret"), 15*time.Minute)
	rec := audit.NewRecorder(nil, log)
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
	gate := authz.NewGate(store.Owners(), log, opts...)
	schema, err := New(svc, gate, log)
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Options{Addr: ":0", GraphQL: schema.Handler()}, svc, gate, store, log)
	return &env{t: t, h: srv.Handler(), store: store}
}

type gqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Extensions map[string]any `json:"extensions"`
}

type gqlResult struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors"`
}

func (r gqlResult) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	c, _ := r.Errors[0].Extensions["code"].(string)
	return c
}

func (e *env) raw(method, path, bearer string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e *env) gql(bearer, query string, vars map[string]any) gqlResult {
	e.t.Helper()
	rec := e.raw(http.MethodPost, "/graphql", bearer, map[string]any{"query": query, "variables": vars})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var res gqlResult
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func (e *env) ok(bearer, query string, vars map[string]any) map[string]any {
	e.t.Helper()
	res := e.gql(bearer, query, vars)
	require.Empty(e.t, res.Errors)
	return res.Data
}

type account struct {
	ID      string
	Access  string
	Refresh string
}

const registerMutation = `mutation($in: RegisterInput!) { register(input: $in) { id username role { name } } }`

const loginMutation = `mutation($in: LoginInput!) {
	login(input: $in) { accessToken refreshToken expiresAt user { id role { name } } }
}`

func (e *env) signup(name string, role model.Role) account {
	e.t.Helper()
	data := e.ok("", registerMutation, map[string]any{"in": map[string]any{
		"username": name, "email": name + "@x.com", "password": "secret1",
	}})
	id := data["register"].(map[string]any)["id"].(string)

	if role == model.RoleAdmin {
		_, err := e.store.Users().SetRole(context.Background(), uuid.FromStringOrNil(id), model.RoleAdmin)
		require.NoError(e.t, err)
	}

	login := e.ok("", loginMutation, map[string]any{"in": map[string]any{
		"email": name + "@x.com", "password": "secret1",
	}})["login"].(map[string]any)
	return account{ID: id, Access: login["accessToken"].(string), Refresh: login["refreshToken"].(string)}
}

func field(data map[string]any, path ...string) any {
	var cur any = data
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}
