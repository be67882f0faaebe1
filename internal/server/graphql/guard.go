package gqlserver

import (
	"github.com/gofrs/uuid/v5"
	"github.com/graphql-go/graphql"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/model"
)

// guarded is a resolver that runs after the gate with the caller's identity.
type guarded func(p graphql.ResolveParams, me model.Identity) (any, error)

// idSource extracts the resource id an ownership check applies to.
type idSource func(p graphql.ResolveParams) uuid.UUID

// idFrom reads the id from args[name], then from the parent object's field
// of the same name. A missing or malformed id yields uuid.Nil, which the gate
// rejects after authentication.
func idFrom(name string) idSource {
	return func(p graphql.ResolveParams) uuid.UUID {
		if v, ok := p.Args[name]; ok {
			return parseID(v)
		}
		if parent, ok := p.Source.(map[string]any); ok {
			return parseID(parent[name])
		}
		return uuid.Nil
	}
}

// self targets the caller's own account.
func self(p graphql.ResolveParams) uuid.UUID {
	id, _ := authz.IdentityFromCtx(p.Context)
	return id.ID
}

func parseID(v any) uuid.UUID {
	switch x := v.(type) {
	case string:
		return uuid.FromStringOrNil(x)
	case uuid.UUID:
		return x
	}
	return uuid.Nil
}

// guard runs the gate for check before next. rid may be nil when check has
// no ownership requirement.
func (s *Schema) guard(check authz.Check, rid idSource, next guarded) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		var resourceID uuid.UUID
		if rid != nil {
			resourceID = rid(p)
		}
		me, err := s.gate.Authorize(p.Context, check, resourceID)
		if err != nil {
			return nil, err
		}
		return next(p, me)
	}
}

func (s *Schema) authenticated(next guarded) graphql.FieldResolveFn {
	return s.guard(authz.Authenticated(), nil, next)
}

func (s *Schema) authorized(roles ...model.Role) func(guarded) graphql.FieldResolveFn {
	return func(next guarded) graphql.FieldResolveFn {
		return s.guard(authz.RequireRoles(roles...), nil, next)
	}
}

func (s *Schema) ownerOf(res authz.Resource, rid idSource, next guarded) graphql.FieldResolveFn {
	return s.guard(authz.Authenticated().Owns(res), rid, next)
}
