package gqlserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	httpserver "github.com/and161185/devfolio/internal/server/http"
)

const missingID = "00000000-0000-4000-8000-000000000000"

func (e *env) restCode(method, path, bearer string, body any) string {
	e.t.Helper()
	rec := e.raw(method, path, bearer, body)
	if rec.Code < http.StatusBadRequest {
		return ""
	}
	var eb httpserver.ErrorBody
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &eb), rec.Body.String())
	return eb.Code
}

type caller struct {
	name   string
	id     string
	bearer string
}

type equivOp struct {
	name string
	rest func(c caller) string
	gql  func(c caller) string
}

// decisions runs every operation on both surfaces for every caller, requires
// the two codes to match, and returns them keyed by "op/caller".
func decisions(t *testing.T, opts ...authz.Option) map[string]string {
	e := newEnv(t, opts...)
	bob := e.signup("bob", model.RoleUser)
	carol := e.signup("carol", model.RoleUser)
	admin := e.signup("root", model.RoleAdmin)

	newProject := func() string {
		return field(e.ok(bob.Access, `mutation { createProject(input: { name: "p" }) { id } }`, nil), "createProject", "id").(string)
	}
	newInquiry := func() string {
		return field(e.ok(bob.Access, `mutation($to: ID!) { sendInquiry(receiverId: $to, subject: "s", message: "m") { id } }`,
			map[string]any{"to": carol.ID}), "sendInquiry", "id").(string)
	}
	project := newProject()
	post := field(e.ok(bob.Access, `mutation { createBlogPost(input: { title: "t", content: "c" }) { id } }`, nil), "createBlogPost", "id").(string)
	inquiry := newInquiry()

	updateProject := func(id string) equivOp {
		return equivOp{
			name: "updateProject " + id,
			rest: func(c caller) string {
				return e.restCode(http.MethodPut, "/api/v1/projects/"+id, c.bearer, map[string]string{"description": "d"})
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation($id: ID!) { updateProject(id: $id, input: { description: "d" }) { id } }`,
					map[string]any{"id": id}).code()
			},
		}
	}
	// target is called once per request; newProject gives each surface its
	// own row, so a delete on one does not change what the other sees.
	deleteProject := func(name string, target func() string) equivOp {
		return equivOp{
			name: name,
			rest: func(c caller) string {
				return e.restCode(http.MethodDelete, "/api/v1/projects/"+target(), c.bearer, nil)
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation($id: ID!) { deleteProject(id: $id) }`,
					map[string]any{"id": target()}).code()
			},
		}
	}

	ops := []equivOp{
		updateProject(project),
		updateProject(missingID),
		updateProject("nope"),
		deleteProject("deleteProject", newProject),
		deleteProject("deleteProject missing", func() string { return missingID }),
		{
			name: "deleteInquiry",
			rest: func(c caller) string {
				return e.restCode(http.MethodDelete, "/api/v1/inquiries/"+newInquiry(), c.bearer, nil)
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation($id: ID!) { deleteInquiry(id: $id) }`,
					map[string]any{"id": newInquiry()}).code()
			},
		},
		{
			name: "updateOwnProfile",
			rest: func(c caller) string {
				return e.restCode(http.MethodPut, "/api/v1/users/"+c.id, c.bearer, map[string]string{"bio": "hi"})
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation { updateMyProfile(input: { bio: "hi" }) { id } }`, nil).code()
			},
		},
		{
			name: "updateBlogPost",
			rest: func(c caller) string {
				return e.restCode(http.MethodPut, "/api/v1/posts/"+post, c.bearer, map[string]string{"content": "c2"})
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation($id: ID!) { updateBlogPost(id: $id, input: { content: "c2" }) { id } }`,
					map[string]any{"id": post}).code()
			},
		},
		{
			name: "markInquiryRead",
			rest: func(c caller) string {
				return e.restCode(http.MethodPut, "/api/v1/inquiries/"+inquiry+"/read-status", c.bearer, map[string]bool{"read_status": true})
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation($id: ID!) { markInquiryRead(id: $id, readStatus: true) { id } }`,
					map[string]any{"id": inquiry}).code()
			},
		},
		{
			name: "listUsers",
			rest: func(c caller) string { return e.restCode(http.MethodGet, "/api/v1/users", c.bearer, nil) },
			gql:  func(c caller) string { return e.gql(c.bearer, `{ users { id } }`, nil).code() },
		},
		{
			name: "createProject",
			rest: func(c caller) string {
				return e.restCode(http.MethodPost, "/api/v1/projects", c.bearer, map[string]string{"name": "n"})
			},
			gql: func(c caller) string {
				return e.gql(c.bearer, `mutation { createProject(input: { name: "n" }) { id } }`, nil).code()
			},
		},
	}
	callers := []caller{
		{"anonymous", missingID, ""},
		{"garbage", missingID, "not.a.jwt"},
		{"bob", bob.ID, bob.Access},
		{"carol", carol.ID, carol.Access},
		{"admin", admin.ID, admin.Access},
	}

	got := map[string]string{}
	for _, o := range ops {
		for _, c := range callers {
			rest, gql := o.rest(c), o.gql(c)
			require.Equal(t, rest, gql, "%s as %s", o.name, c.name)
			got[o.name+"/"+c.name] = rest
		}
	}
	got["project"] = project
	return got
}

// Both surfaces must reach the same gate decision for the same caller and target.
func TestDecisionEquivalence(t *testing.T) {
	got := decisions(t)
	project := got["project"]

	require.Equal(t, errs.CodeUnauthenticated, got["updateProject "+project+"/anonymous"])
	require.Equal(t, errs.CodeUnauthenticated, got["updateProject "+project+"/garbage"])
	require.Equal(t, "", got["updateProject "+project+"/bob"])
	require.Equal(t, errs.CodeForbidden, got["updateProject "+project+"/carol"])
	require.Equal(t, "", got["updateProject "+project+"/admin"])
	require.Equal(t, errs.CodeNotFound, got["updateProject "+missingID+"/carol"])
	require.Equal(t, errs.CodeBadRequest, got["updateProject nope/bob"])

	require.Equal(t, errs.CodeUnauthenticated, got["deleteProject/anonymous"])
	require.Equal(t, "", got["deleteProject/bob"])
	require.Equal(t, errs.CodeForbidden, got["deleteProject/carol"])
	require.Equal(t, "", got["deleteProject/admin"])
	require.Equal(t, errs.CodeNotFound, got["deleteProject missing/carol"])
	require.Equal(t, errs.CodeNotFound, got["deleteProject missing/admin"])
	require.Equal(t, errs.CodeForbidden, got["deleteInquiry/bob"])
	require.Equal(t, "", got["deleteInquiry/carol"])

	require.Equal(t, errs.CodeUnauthenticated, got["updateOwnProfile/anonymous"])
	require.Equal(t, "", got["updateOwnProfile/carol"])
	require.Equal(t, "", got["updateOwnProfile/admin"])

	require.Equal(t, errs.CodeForbidden, got["markInquiryRead/bob"])
	require.Equal(t, "", got["markInquiryRead/carol"])
	require.Equal(t, errs.CodeForbidden, got["listUsers/carol"])
	require.Equal(t, "", got["listUsers/admin"])
}

// With existence concealed, a non-admin cannot tell a missing row from
// someone else's; an admin still sees NOT_FOUND.
func TestDecisionEquivalence_ConcealExistence(t *testing.T) {
	got := decisions(t, authz.WithConcealExistence(true))
	project := got["project"]

	require.Equal(t, errs.CodeForbidden, got["updateProject "+project+"/carol"])
	require.Equal(t, errs.CodeForbidden, got["updateProject "+missingID+"/carol"])
	require.Equal(t, errs.CodeForbidden, got["updateProject "+missingID+"/bob"])
	require.Equal(t, errs.CodeNotFound, got["updateProject "+missingID+"/admin"])
	require.Equal(t, errs.CodeUnauthenticated, got["updateProject "+missingID+"/anonymous"])
	require.Equal(t, errs.CodeForbidden, got["deleteProject missing/carol"])
	require.Equal(t, errs.CodeNotFound, got["deleteProject missing/admin"])
	require.Equal(t, "", got["deleteProject/bob"])
}
