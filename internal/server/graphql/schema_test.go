package gqlserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

func TestGraphQL_AuthLifecycle(t *testing.T) {
	e := newEnv(t)
	alice := e.signup("alice", model.RoleUser)

	me := e.ok(alice.Access, `{ myProfile { username role { name } } }`, nil)
	require.Equal(t, "alice", field(me, "myProfile", "username"))
	require.Equal(t, "user", field(me, "myProfile", "role", "name"))

	const refresh = `mutation($rt: String!) { refreshToken(refreshToken: $rt) { accessToken expiresAt } }`
	data := e.ok("", refresh, map[string]any{"rt": alice.Refresh})
	require.NotEmpty(t, field(data, "refreshToken", "accessToken"))

	const logout = `mutation($rt: String!) { logout(refreshToken: $rt) }`
	require.Equal(t, true, e.ok("", logout, map[string]any{"rt": alice.Refresh})["logout"])
	require.Equal(t, true, e.ok("", logout, map[string]any{"rt": alice.Refresh})["logout"])

	res := e.gql("", refresh, map[string]any{"rt": alice.Refresh})
	require.Equal(t, errs.CodeUnauthenticated, res.code())
	require.Equal(t, errs.ErrInvalidRefreshToken.Error(), res.Errors[0].Message)

	res = e.gql("", `{ myProfile { id } }`, nil)
	require.Equal(t, errs.CodeUnauthenticated, res.code())
}

func TestGraphQL_RegisterValidation(t *testing.T) {
	e := newEnv(t)
	res := e.gql("", registerMutation, map[string]any{"in": map[string]any{
		"username": "al", "email": "nope", "password": "123",
	}})
	require.Equal(t, errs.CodeValidationFailed, res.code())
	fields, ok := res.Errors[0].Extensions["errors"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 3)

	e.signup("alice", model.RoleUser)
	res = e.gql("", registerMutation, map[string]any{"in": map[string]any{
		"username": "alice", "email": "other@x.com", "password": "secret1",
	}})
	require.Equal(t, errs.CodeConflict, res.code())
}

func TestGraphQL_LoginFailuresLookAlike(t *testing.T) {
	e := newEnv(t)
	e.signup("alice", model.RoleUser)

	wrong := e.gql("", loginMutation, map[string]any{"in": map[string]any{"email": "alice@x.com", "password": "bad"}})
	ghost := e.gql("", loginMutation, map[string]any{"in": map[string]any{"email": "ghost@x.com", "password": "secret1"}})

	require.Equal(t, errs.CodeUnauthenticated, wrong.code())
	require.Equal(t, wrong.code(), ghost.code())
	require.Equal(t, wrong.Errors[0].Message, ghost.Errors[0].Message)
}

const updateProject = `mutation($id: ID!, $name: String) { updateProject(id: $id, input: { name: $name }) { id name user { username } } }`

func TestGraphQL_BobCarolAdmin(t *testing.T) {
	e := newEnv(t)
	bob := e.signup("bob", model.RoleUser)
	carol := e.signup("carol", model.RoleUser)
	admin := e.signup("root", model.RoleAdmin)

	created := e.ok(bob.Access, `mutation { createProject(input: { name: "portfolio" }) { id user { id } } }`, nil)
	pid := field(created, "createProject", "id").(string)
	require.Equal(t, bob.ID, field(created, "createProject", "user", "id"))

	vars := map[string]any{"id": pid, "name": "stolen"}
	require.Equal(t, errs.CodeUnauthenticated, e.gql("", updateProject, vars).code())
	require.Equal(t, errs.CodeUnauthenticated, e.gql("garbage", updateProject, vars).code())
	require.Equal(t, errs.CodeForbidden, e.gql(carol.Access, updateProject, vars).code())

	data := e.ok(admin.Access, updateProject, map[string]any{"id": pid, "name": "moderated"})
	require.Equal(t, "moderated", field(data, "updateProject", "name"))
	require.Equal(t, "bob", field(data, "updateProject", "user", "username"))

	missing := map[string]any{"id": "00000000-0000-4000-8000-000000000000", "name": "x"}
	require.Equal(t, errs.CodeNotFound, e.gql(carol.Access, updateProject, missing).code())

	bad := map[string]any{"id": "not-a-uuid", "name": "x"}
	require.Equal(t, errs.CodeBadRequest, e.gql(carol.Access, updateProject, bad).code())
	require.Equal(t, errs.CodeUnauthenticated, e.gql("", updateProject, bad).code())

	const del = `mutation($id: ID!) { deleteProject(id: $id) }`
	require.Equal(t, errs.CodeForbidden, e.gql(carol.Access, del, map[string]any{"id": pid}).code())
	require.Equal(t, true, e.ok(bob.Access, del, map[string]any{"id": pid})["deleteProject"])
}

func TestGraphQL_AdminOnlyOperations(t *testing.T) {
	e := newEnv(t)
	bob := e.signup("bob", model.RoleUser)
	admin := e.signup("root", model.RoleAdmin)

	require.Equal(t, errs.CodeUnauthenticated, e.gql("", `{ users { id } }`, nil).code())
	require.Equal(t, errs.CodeForbidden, e.gql(bob.Access, `{ users { id } }`, nil).code())
	users := e.ok(admin.Access, `{ users { id } }`, nil)["users"].([]any)
	require.Len(t, users, 2)

	const setRole = `mutation($id: ID!, $role: String!) { setUserRole(id: $id, roleName: $role) { role { name } } }`
	require.Equal(t, errs.CodeForbidden, e.gql(bob.Access, setRole, map[string]any{"id": bob.ID, "role": "admin"}).code())
	require.Equal(t, errs.CodeValidationFailed, e.gql(admin.Access, setRole, map[string]any{"id": bob.ID, "role": "root"}).code())

	data := e.ok(admin.Access, setRole, map[string]any{"id": bob.ID, "role": "admin"})
	require.Equal(t, "admin", field(data, "setUserRole", "role", "name"))
	// the promotion applies to bob's existing token
	require.Len(t, e.ok(bob.Access, `{ users { id } }`, nil)["users"], 2)
}

func TestGraphQL_InboxVisibleToOwnerOnly(t *testing.T) {
	e := newEnv(t)
	bob := e.signup("bob", model.RoleUser)
	carol := e.signup("carol", model.RoleUser)
	admin := e.signup("root", model.RoleAdmin)

	const send = `mutation($to: ID!) { sendInquiry(receiverId: $to, subject: "hi", message: "hire me") { id sender { username } receiver { username } } }`
	sent := e.ok(bob.Access, send, map[string]any{"to": carol.ID})
	require.Equal(t, "bob", field(sent, "sendInquiry", "sender", "username"))
	require.Equal(t, "carol", field(sent, "sendInquiry", "receiver", "username"))
	iid := field(sent, "sendInquiry", "id").(string)

	self := e.gql(bob.Access, send, map[string]any{"to": bob.ID})
	require.Equal(t, errs.CodeBadRequest, self.code())

	const inbox = `query($id: ID) { user(id: $id) { username inquiriesReceived { subject } } }`
	res := e.gql(bob.Access, inbox, map[string]any{"id": carol.ID})
	require.Equal(t, errs.CodeForbidden, res.code())
	require.Equal(t, "carol", field(res.Data, "user", "username"))
	require.Nil(t, field(res.Data, "user", "inquiriesReceived"))

	res = e.gql("", inbox, map[string]any{"id": carol.ID})
	require.Equal(t, errs.CodeUnauthenticated, res.code())

	for _, who := range []account{carol, admin} {
		got := e.ok(who.Access, inbox, map[string]any{"id": carol.ID})
		require.Len(t, field(got, "user", "inquiriesReceived"), 1)
	}

	const mark = `mutation($id: ID!) { markInquiryRead(id: $id, readStatus: true) { readStatus } }`
	require.Equal(t, errs.CodeForbidden, e.gql(bob.Access, mark, map[string]any{"id": iid}).code())
	require.Equal(t, true, field(e.ok(carol.Access, mark, map[string]any{"id": iid}), "markInquiryRead", "readStatus"))
}

func TestGraphQL_SkillsAndPosts(t *testing.T) {
	e := newEnv(t)
	bob := e.signup("bob", model.RoleUser)
	sk, err := e.store.Skills().Create(t.Context(), "Go")
	require.NoError(t, err)

	const add = `mutation($id: ID!) { addSkillToProfile(skillId: $id) { proficiencyLevel skill { name } user { username } } }`
	data := e.ok(bob.Access, add, map[string]any{"id": sk.ID.String()})
	require.Equal(t, "intermediate", field(data, "addSkillToProfile", "proficiencyLevel"))
	require.Equal(t, "Go", field(data, "addSkillToProfile", "skill", "name"))
	require.Equal(t, errs.CodeConflict, e.gql(bob.Access, add, map[string]any{"id": sk.ID.String()}).code())

	const update = `mutation($id: ID!) { updateSkillProficiency(skillId: $id, proficiencyLevel: expert) { proficiencyLevel } }`
	require.Equal(t, "expert", field(e.ok(bob.Access, update, map[string]any{"id": sk.ID.String()}), "updateSkillProficiency", "proficiencyLevel"))

	const remove = `mutation($id: ID!) { removeSkillFromProfile(skillId: $id) }`
	require.Equal(t, true, e.ok(bob.Access, remove, map[string]any{"id": sk.ID.String()})["removeSkillFromProfile"])
	require.Equal(t, false, e.ok(bob.Access, remove, map[string]any{"id": sk.ID.String()})["removeSkillFromProfile"])

	e.ok(bob.Access, `mutation { createBlogPost(input: { title: "draft", content: "wip" }) { id } }`, nil)
	e.ok(bob.Access, `mutation { createBlogPost(input: { title: "live", content: "hi", isPublished: true }) { id } }`, nil)

	require.Len(t, e.ok("", `{ blogPosts { title } }`, nil)["blogPosts"], 1)
	require.Len(t, e.ok(bob.Access, `{ myBlogPosts { title } }`, nil)["myBlogPosts"], 2)
	profile := e.ok("", `query($u: String!) { userProfile(username: $u) { blogPosts { title } skills { proficiencyLevel } } }`,
		map[string]any{"u": "bob"})
	require.Len(t, field(profile, "userProfile", "blogPosts"), 1)
	require.Empty(t, field(profile, "userProfile", "skills"))

	require.Nil(t, e.ok("", `{ userProfile(username: "ghost") { id } }`, nil)["userProfile"])
}

func TestGraphQL_DeleteMyAccount(t *testing.T) {
	e := newEnv(t)
	bob := e.signup("bob", model.RoleUser)

	require.Equal(t, true, e.ok(bob.Access, `mutation { deleteMyAccount }`, nil)["deleteMyAccount"])
	require.Equal(t, errs.CodeUnauthenticated, e.gql(bob.Access, `{ myProfile { id } }`, nil).code())

	res := e.gql("", `mutation($rt: String!) { refreshToken(refreshToken: $rt) { accessToken } }`, map[string]any{"rt": bob.Refresh})
	require.Equal(t, errs.CodeUnauthenticated, res.code())
}

func TestGraphQL_MalformedRequest(t *testing.T) {
	e := newEnv(t)
	rec := e.raw(http.MethodPost, "/graphql", "", map[string]any{"query": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), errs.CodeBadRequest)
}
