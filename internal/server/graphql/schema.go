// Package gqlserver exposes the GraphQL surface. Every guarded resolver goes
// through the same authz.Gate as the REST routes.
package gqlserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/service"
	"github.com/and161185/devfolio/internal/validate"
)

// Schema is the executable GraphQL schema bound to the services.
type Schema struct {
	svc    service.Services
	gate   *authz.Gate
	log    *zap.Logger
	v      *validate.Validator
	schema graphql.Schema

	user, project, post, skill, userSkill, inquiry *graphql.Object
}

// New builds the schema.
func New(svc service.Services, gate *authz.Gate, log *zap.Logger) (*Schema, error) {
	s := &Schema{svc: svc, gate: gate, log: log, v: validate.New()}
	s.buildTypes()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    s.queryType(),
		Mutation: s.mutationType(),
	})
	if err != nil {
		return nil, fmt.Errorf("graphql schema: %w", err)
	}
	s.schema = schema
	return s, nil
}

// Do executes one operation. ctx carries the caller's identity, if any.
func (s *Schema) Do(ctx context.Context, query string, vars map[string]any, operation string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: vars,
		OperationName:  operation,
		Context:        ctx,
	})
}

// field wraps resolve so returned errors carry extensions.code.
func (s *Schema) field(t graphql.Output, args graphql.FieldConfigArgument, resolve graphql.FieldResolveFn) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Args: args,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			out, err := resolve(p)
			if err != nil {
				return nil, toError(err, s.log)
			}
			return out, nil
		},
	}
}

// decode copies src into dst by json tag and validates the result.
func (s *Schema) decode(src map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: dst})
	if err != nil {
		return err
	}
	if err := dec.Decode(src); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBadRequest, err)
	}
	return s.v.Validate(dst)
}

func (s *Schema) input(p graphql.ResolveParams, dst any) error {
	raw, _ := p.Args["input"].(map[string]any)
	return s.decode(raw, dst)
}

func argID(p graphql.ResolveParams, name string) (uuid.UUID, error) {
	id := parseID(p.Args[name])
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid id", errs.ErrBadRequest, name)
	}
	return id, nil
}

func parentID(p graphql.ResolveParams, key string) uuid.UUID {
	parent, _ := p.Source.(map[string]any)
	return parseID(parent[key])
}

// nullIfMissing turns ErrNotFound into a null result for nullable lookups.
func nullIfMissing(obj any, err error) (any, error) {
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// deleted reports a removal as a boolean; a row already gone is false.
func deleted(err error) (any, error) {
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return nil, err
	}
	return true, nil
}

var (
	nonNullID     = graphql.NewNonNull(graphql.ID)
	nonNullString = graphql.NewNonNull(graphql.String)
	nonNullBool   = graphql.NewNonNull(graphql.Boolean)
	nonNullTime   = graphql.NewNonNull(graphql.DateTime)
)

func listOf(t graphql.Type) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

func idArg(names ...string) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, n := range names {
		args[n] = &graphql.ArgumentConfig{Type: nonNullID}
	}
	return args
}

var proficiencyEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "ProficiencyLevel",
	Values: graphql.EnumValueConfigMap{
		"beginner":     &graphql.EnumValueConfig{Value: "beginner"},
		"intermediate": &graphql.EnumValueConfig{Value: "intermediate"},
		"expert":       &graphql.EnumValueConfig{Value: "expert"},
	},
})

var roleType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Role",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: nonNullID},
		"name": &graphql.Field{Type: nonNullString},
	},
})

func (s *Schema) buildTypes() {
	s.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: nonNullID},
			"username":          &graphql.Field{Type: nonNullString},
			"email":             &graphql.Field{Type: nonNullString},
			"bio":               &graphql.Field{Type: graphql.String},
			"githubUrl":         &graphql.Field{Type: graphql.String},
			"linkedinUrl":       &graphql.Field{Type: graphql.String},
			"portfolioUrl":      &graphql.Field{Type: graphql.String},
			"profilePictureUrl": &graphql.Field{Type: graphql.String},
			"role":              &graphql.Field{Type: graphql.NewNonNull(roleType)},
			"createdAt":         &graphql.Field{Type: nonNullTime},
			"updatedAt":         &graphql.Field{Type: nonNullTime},
		},
	})
	s.skill = graphql.NewObject(graphql.ObjectConfig{
		Name: "Skill",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: nonNullID},
			"name": &graphql.Field{Type: nonNullString},
		},
	})
	s.project = graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: nonNullID},
			"name":          &graphql.Field{Type: nonNullString},
			"description":   &graphql.Field{Type: graphql.String},
			"techStack":     &graphql.Field{Type: graphql.String},
			"projectUrl":    &graphql.Field{Type: graphql.String},
			"githubRepoUrl": &graphql.Field{Type: graphql.String},
			"imageUrl":      &graphql.Field{Type: graphql.String},
			"createdAt":     &graphql.Field{Type: nonNullTime},
			"updatedAt":     &graphql.Field{Type: nonNullTime},
			"user":          s.field(s.user, nil, s.relatedUser("userId")),
		},
	})
	s.post = graphql.NewObject(graphql.ObjectConfig{
		Name: "BlogPost",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: nonNullID},
			"title":       &graphql.Field{Type: nonNullString},
			"content":     &graphql.Field{Type: nonNullString},
			"isPublished": &graphql.Field{Type: nonNullBool},
			"createdAt":   &graphql.Field{Type: nonNullTime},
			"updatedAt":   &graphql.Field{Type: nonNullTime},
			"user":        s.field(s.user, nil, s.relatedUser("userId")),
		},
	})
	s.userSkill = graphql.NewObject(graphql.ObjectConfig{
		Name: "UserSkill",
		Fields: graphql.Fields{
			"skill":            &graphql.Field{Type: graphql.NewNonNull(s.skill)},
			"proficiencyLevel": &graphql.Field{Type: graphql.NewNonNull(proficiencyEnum)},
			"user":             s.field(s.user, nil, s.relatedUser("userId")),
		},
	})
	s.inquiry = graphql.NewObject(graphql.ObjectConfig{
		Name: "Inquiry",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: nonNullID},
			"subject":    &graphql.Field{Type: nonNullString},
			"message":    &graphql.Field{Type: nonNullString},
			"readStatus": &graphql.Field{Type: nonNullBool},
			"sentAt":     &graphql.Field{Type: nonNullTime},
			"sender":     s.field(s.user, nil, s.relatedUser("senderId")),
			"receiver":   s.field(s.user, nil, s.relatedUser("receiverId")),
		},
	})

	s.user.AddFieldConfig("projects", s.field(listOf(s.project), nil, func(p graphql.ResolveParams) (any, error) {
		list, err := s.svc.Projects.ListByUser(p.Context, parentID(p, "id"))
		return objects(list, projectObject), err
	}))
	s.user.AddFieldConfig("blogPosts", s.field(listOf(s.post), nil, func(p graphql.ResolveParams) (any, error) {
		list, err := s.svc.Posts.ListByUser(p.Context, parentID(p, "id"), false)
		return objects(list, postObject), err
	}))
	s.user.AddFieldConfig("skills", s.field(listOf(s.userSkill), nil, func(p graphql.ResolveParams) (any, error) {
		list, err := s.svc.Skills.ListForUser(p.Context, parentID(p, "id"))
		return objects(list, userSkillObject), err
	}))
	// Inbox and outbox are private: the parent user must be the caller, or
	// the caller an admin.
	s.user.AddFieldConfig("inquiriesReceived", s.field(graphql.NewList(graphql.NewNonNull(s.inquiry)), nil,
		s.ownerOf(authz.ResourceUser, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
			list, err := s.svc.Inquiries.ListReceived(p.Context, parentID(p, "id"))
			return objects(list, inquiryObject), err
		})))
	s.user.AddFieldConfig("inquiriesSent", s.field(graphql.NewList(graphql.NewNonNull(s.inquiry)), nil,
		s.ownerOf(authz.ResourceUser, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
			list, err := s.svc.Inquiries.ListSent(p.Context, parentID(p, "id"))
			return objects(list, inquiryObject), err
		})))
}

// relatedUser loads the user referenced by the parent's key; a missing or
// deleted user resolves to null.
func (s *Schema) relatedUser(key string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		id := parentID(p, key)
		if id == uuid.Nil {
			return nil, nil
		}
		u, err := s.svc.Users.Get(p.Context, id)
		if err != nil {
			return nullIfMissing(nil, err)
		}
		return userObject(u), nil
	}
}
