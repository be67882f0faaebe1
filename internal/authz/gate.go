// Package authz holds the authorization gate shared by the REST and GraphQL
// surfaces. Transports extract the identity and resource id; the decision is
// made here only.
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
)

// Resource names an ownable table and the column holding the owner id.
// Values are fixed at compile time; nothing from a request selects them.
type Resource struct {
	Name        string
	Table       string
	OwnerColumn string
}

var (
	ResourceUser     = Resource{Name: "user", Table: "users", OwnerColumn: "id"}
	ResourceProject  = Resource{Name: "project", Table: "projects", OwnerColumn: "user_id"}
	ResourceBlogPost = Resource{Name: "blog post", Table: "blog_posts", OwnerColumn: "user_id"}
	// an inquiry belongs to whoever received it
	ResourceInquiry = Resource{Name: "inquiry", Table: "inquiries", OwnerColumn: "receiver_id"}
)

// Check describes what a route or field requires beyond authentication.
type Check struct {
	roleRequired bool
	roles        []model.Role
	resource     *Resource
}

// Authenticated requires only a resolved identity.
func Authenticated() Check { return Check{} }

// RequireRoles requires the identity's role to be one of roles. An empty
// list denies every caller.
func RequireRoles(roles ...model.Role) Check {
	return Check{roleRequired: true, roles: roles}
}

// Owns adds an ownership requirement on res.
func (c Check) Owns(res Resource) Check {
	c.resource = &res
	return c
}

// Resource returns the ownership target of the check, if any.
func (c Check) Resource() (Resource, bool) {
	if c.resource == nil {
		return Resource{}, false
	}
	return *c.resource, true
}

// Gate evaluates authenticate, role and ownership in that order; the first
// failure is returned.
type Gate struct {
	owners  repository.OwnerRepository
	log     *zap.Logger
	conceal bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithConcealExistence reports a missing resource as ErrForbidden to
// non-admin callers so ids cannot be probed. Off by default.
func WithConcealExistence(on bool) Option {
	return func(g *Gate) { g.conceal = on }
}

// NewGate constructs a Gate reading owners through owners.
func NewGate(owners repository.OwnerRepository, log *zap.Logger, opts ...Option) *Gate {
	g := &Gate{owners: owners, log: log}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Authenticated returns the identity placed in ctx by the transport.
func (g *Gate) Authenticated(ctx context.Context) (model.Identity, error) {
	id, ok := IdentityFromCtx(ctx)
	if !ok {
		return model.Identity{}, fmt.Errorf("%w: authentication required", errs.ErrUnauthenticated)
	}
	return id, nil
}

// RoleAuthorized fails with ErrForbidden unless id.Role is in allowed.
func (g *Gate) RoleAuthorized(id model.Identity, allowed ...model.Role) error {
	if slices.Contains(allowed, id.Role) {
		return nil
	}
	g.log.Debug("role denied", zap.String("user_id", id.ID.String()), zap.String("role", string(id.Role)))
	return fmt.Errorf("%w: role %q not permitted", errs.ErrForbidden, id.Role)
}

// OwnerAuthorized passes when id owns the row or holds the admin role. A
// missing row is ErrNotFound, checked before ownership.
//
// The owner is read without a transaction around the caller's mutation, so
// ownership can change between this check and the write.
func (g *Gate) OwnerAuthorized(ctx context.Context, id model.Identity, res Resource, resourceID uuid.UUID) error {
	if resourceID == uuid.Nil {
		return fmt.Errorf("%w: %s id is required", errs.ErrBadRequest, res.Name)
	}
	owner, err := g.owners.OwnerOf(ctx, res.Table, res.OwnerColumn, resourceID)
	if errors.Is(err, errs.ErrNotFound) {
		if g.conceal && !id.IsAdmin() {
			return fmt.Errorf("%w: not the owner of this %s", errs.ErrForbidden, res.Name)
		}
		return fmt.Errorf("%s: %w", res.Name, errs.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if owner == id.ID || id.IsAdmin() {
		return nil
	}
	g.log.Debug("ownership denied",
		zap.String("user_id", id.ID.String()),
		zap.String("resource", res.Name),
		zap.String("resource_id", resourceID.String()),
	)
	return fmt.Errorf("%w: not the owner of this %s", errs.ErrForbidden, res.Name)
}

// Authorize runs c against the identity in ctx. resourceID is used only when
// c carries an ownership requirement.
func (g *Gate) Authorize(ctx context.Context, c Check, resourceID uuid.UUID) (model.Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	if c.roleRequired {
		if err := g.RoleAuthorized(id, c.roles...); err != nil {
			return model.Identity{}, err
		}
	}
	if res, ok := c.Resource(); ok {
		if err := g.OwnerAuthorized(ctx, id, res, resourceID); err != nil {
			return model.Identity{}, err
		}
	}
	return id, nil
}
