// Package memory implements the repository interfaces in process memory.
// It backs local runs without a database and the transport tests; the
// relational cascades of the SQL schema are reproduced by hand.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
)

var roleIDs = map[model.Role]int32{model.RoleUser: 1, model.RoleAdmin: 2}

type userSkillKey struct{ user, skill uuid.UUID }

// Store holds every table behind one lock.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      map[uuid.UUID]model.User
	tokens     map[string]model.RefreshToken
	projects   map[uuid.UUID]model.Project
	posts      map[uuid.UUID]model.BlogPost
	skills     map[uuid.UUID]model.Skill
	userSkills map[userSkillKey]string
	inquiries  map[uuid.UUID]model.Inquiry
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		users:      map[uuid.UUID]model.User{},
		tokens:     map[string]model.RefreshToken{},
		projects:   map[uuid.UUID]model.Project{},
		posts:      map[uuid.UUID]model.BlogPost{},
		skills:     map[uuid.UUID]model.Skill{},
		userSkills: map[userSkillKey]string{},
		inquiries:  map[uuid.UUID]model.Inquiry{},
	}
}

// SetClock overrides the time source; used by tests that move past expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) Users() *Users { return &Users{s} }
func (s *Store) RefreshTokens() *Tokens { return &Tokens{s} }
func (s *Store) Owners() *Owners { return &Owners{s} }
func (s *Store) Projects() *Projects { return &Projects{s} }
func (s *Store) BlogPosts() *BlogPosts { return &BlogPosts{s} }
func (s *Store) Skills() *Skills { return &Skills{s} }
func (s *Store) Inquiries() *Inquiries { return &Inquiries{s} }
func (s *Store) Ping(context.Context) error { return nil }

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.RefreshTokenRepository = (*Tokens)(nil)
	_ repository.OwnerRepository        = (*Owners)(nil)
	_ repository.ProjectRepository      = (*Projects)(nil)
	_ repository.BlogPostRepository     = (*BlogPosts)(nil)
	_ repository.SkillRepository        = (*Skills)(nil)
	_ repository.InquiryRepository      = (*Inquiries)(nil)
)

func notFound(what string) error { return fmt.Errorf("%s: %w", what, errs.ErrNotFound) }
func conflict(what string) error { return fmt.Errorf("%s: %w", what, errs.ErrConflict) }

// Users implements repository.UserRepository.
type Users struct{ s *Store }

func (r *Users) uniqueLocked(id uuid.UUID, username, email string) error {
	for _, u := range r.s.users {
		if u.ID == id {
			continue
		}
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return conflict("user")
		}
	}
	return nil
}

func (r *Users) Create(_ context.Context, u *model.User, role model.Role) error {
	rid, ok := roleIDs[role]
	if !ok {
		return fmt.Errorf("create user: role %q not seeded", role)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.users[u.ID]; exists {
		return conflict("create user")
	}
	if err := r.uniqueLocked(u.ID, u.Username, u.Email); err != nil {
		return err
	}
	now := r.s.now()
	u.RoleID, u.Role, u.CreatedAt, u.UpdatedAt = rid, role, now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	return &u, nil
}

func (r *Users) find(pred func(model.User) bool, what string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if pred(u) {
			return &u, nil
		}
	}
	return nil, notFound(what)
}

func (r *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) }, "get user by email")
}

func (r *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username }, "get user by username")
}

func (r *Users) GetIdentity(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return u.Identity(), nil
}

func (r *Users) List(context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (r *Users) Update(_ context.Context, id uuid.UUID, p model.UserPatch) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("update user")
	}
	setIf(&u.Username, p.Username)
	setIf(&u.Email, p.Email)
	setIf(&u.PwdHash, p.PwdHash)
	setIf(&u.Bio, p.Bio)
	setIf(&u.GithubURL, p.GithubURL)
	setIf(&u.LinkedinURL, p.LinkedinURL)
	setIf(&u.PortfolioURL, p.PortfolioURL)
	setIf(&u.ProfilePictureURL, p.ProfilePictureURL)
	if err := r.uniqueLocked(id, u.Username, u.Email); err != nil {
		return nil, err
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return &u, nil
}

func (r *Users) SetRole(_ context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	rid, ok := roleIDs[role]
	if !ok {
		return nil, notFound("set role")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("set role")
	}
	u.RoleID, u.Role, u.UpdatedAt = rid, role, r.s.now()
	r.s.users[id] = u
	return &u, nil
}

// Delete revokes the user's refresh tokens and applies the schema's cascades.
func (r *Users) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return notFound("delete user")
	}
	for k, t := range r.s.tokens {
		if t.UserID == id {
			t.Revoked = true
			r.s.tokens[k] = t
		}
	}
	delete(r.s.users, id)
	for k, p := range r.s.projects {
		if p.UserID == id {
			delete(r.s.projects, k)
		}
	}
	for k, p := range r.s.posts {
		if p.UserID == id {
			delete(r.s.posts, k)
		}
	}
	for k := range r.s.userSkills {
		if k.user == id {
			delete(r.s.userSkills, k)
		}
	}
	for k, in := range r.s.inquiries {
		switch {
		case in.ReceiverID == id:
			delete(r.s.inquiries, k)
		case in.SenderID.Valid && in.SenderID.UUID == id:
			in.SenderID = uuid.NullUUID{}
			r.s.inquiries[k] = in
		}
	}
	return nil
}

// Tokens implements repository.RefreshTokenRepository.
type Tokens struct{ s *Store }

func (r *Tokens) Persist(_ context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.tokens[token]; exists {
		return conflict("persist refresh token")
	}
	r.s.tokens[token] = model.RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: r.s.now()}
	return nil
}

func (r *Tokens) LookupActive(_ context.Context, token string) (*model.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[token]
	if !ok || t.Revoked || !t.ExpiresAt.After(r.s.now()) {
		return nil, notFound("lookup refresh token")
	}
	return &t, nil
}

func (r *Tokens) Revoke(_ context.Context, token string) (uuid.UUID, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok || t.Revoked {
		return uuid.Nil, false, nil
	}
	t.Revoked = true
	r.s.tokens[token] = t
	return t.UserID, true, nil
}

// Owners implements repository.OwnerRepository over the known ownable tables.
type Owners struct{ s *Store }

func (r *Owners) OwnerOf(_ context.Context, table, column string, id uuid.UUID) (uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var (
		owner uuid.UUID
		ok    bool
	)
	switch table + "." + column {
	case "users.id":
		_, ok = r.s.users[id]
		owner = id
	case "projects.user_id":
		var p model.Project
		p, ok = r.s.projects[id]
		owner = p.UserID
	case "blog_posts.user_id":
		var p model.BlogPost
		p, ok = r.s.posts[id]
		owner = p.UserID
	case "inquiries.receiver_id":
		var in model.Inquiry
		in, ok = r.s.inquiries[id]
		owner = in.ReceiverID
	default:
		return uuid.Nil, fmt.Errorf("owner of %s.%s: unknown ownable column", table, column)
	}
	if !ok {
		return uuid.Nil, notFound("owner of " + table)
	}
	return owner, nil
}
