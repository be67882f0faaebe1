package gqlserver

import (
	"github.com/gofrs/uuid/v5"
	"github.com/graphql-go/graphql"

	"github.com/and161185/devfolio/internal/model"
)

func (s *Schema) queryType() *graphql.Object {
	byID := func(p graphql.ResolveParams) (uuid.UUID, error) { return argID(p, "id") }
	byUser := func(p graphql.ResolveParams) (uuid.UUID, error) { return argID(p, "userId") }

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"users": s.field(listOf(s.user), nil, s.authorized(model.RoleAdmin)(
				func(p graphql.ResolveParams, _ model.Identity) (any, error) {
					list, err := s.svc.Users.List(p.Context)
					return objects(list, userObject), err
				})),
			"user": s.field(s.user, graphql.FieldConfigArgument{"id": {Type: graphql.ID}},
				func(p graphql.ResolveParams) (any, error) {
					if _, ok := p.Args["id"]; !ok {
						return nil, nil
					}
					id, err := byID(p)
					if err != nil {
						return nil, err
					}
					u, err := s.svc.Users.Get(p.Context, id)
					if err != nil {
						return nullIfMissing(nil, err)
					}
					return userObject(u), nil
				}),
			"userProfile": s.field(s.user, graphql.FieldConfigArgument{"username": {Type: nonNullString}},
				func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["username"].(string)
					u, err := s.svc.Users.GetByUsername(p.Context, name)
					if err != nil {
						return nullIfMissing(nil, err)
					}
					return userObject(u), nil
				}),

			"projects": s.field(listOf(s.project), nil, func(p graphql.ResolveParams) (any, error) {
				list, err := s.svc.Projects.List(p.Context)
				return objects(list, projectObject), err
			}),
			"project": s.field(s.project, idArg("id"), func(p graphql.ResolveParams) (any, error) {
				id, err := byID(p)
				if err != nil {
					return nil, err
				}
				pr, err := s.svc.Projects.Get(p.Context, id)
				if err != nil {
					return nullIfMissing(nil, err)
				}
				return projectObject(pr), nil
			}),
			"userProjects": s.field(listOf(s.project), idArg("userId"), func(p graphql.ResolveParams) (any, error) {
				uid, err := byUser(p)
				if err != nil {
					return nil, err
				}
				list, err := s.svc.Projects.ListByUser(p.Context, uid)
				return objects(list, projectObject), err
			}),

			"blogPosts": s.field(listOf(s.post), nil, func(p graphql.ResolveParams) (any, error) {
				list, err := s.svc.Posts.ListPublished(p.Context)
				return objects(list, postObject), err
			}),
			"blogPost": s.field(s.post, idArg("id"), func(p graphql.ResolveParams) (any, error) {
				id, err := byID(p)
				if err != nil {
					return nil, err
				}
				post, err := s.svc.Posts.GetPublished(p.Context, id)
				if err != nil {
					return nullIfMissing(nil, err)
				}
				return postObject(post), nil
			}),
			"userBlogPosts": s.field(listOf(s.post), idArg("userId"), func(p graphql.ResolveParams) (any, error) {
				uid, err := byUser(p)
				if err != nil {
					return nil, err
				}
				list, err := s.svc.Posts.ListByUser(p.Context, uid, false)
				return objects(list, postObject), err
			}),

			"skills": s.field(listOf(s.skill), nil, func(p graphql.ResolveParams) (any, error) {
				list, err := s.svc.Skills.List(p.Context)
				return objects(list, skillObject), err
			}),
			"skill": s.field(s.skill, idArg("id"), func(p graphql.ResolveParams) (any, error) {
				id, err := byID(p)
				if err != nil {
					return nil, err
				}
				sk, err := s.svc.Skills.Get(p.Context, id)
				if err != nil {
					return nullIfMissing(nil, err)
				}
				return skillObject(sk), nil
			}),

			"myProfile": s.field(s.user, nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				u, err := s.svc.Users.Get(p.Context, me.ID)
				if err != nil {
					return nil, err
				}
				return userObject(u), nil
			})),
			"myProjects": s.field(listOf(s.project), nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				list, err := s.svc.Projects.ListByUser(p.Context, me.ID)
				return objects(list, projectObject), err
			})),
			"myBlogPosts": s.field(listOf(s.post), nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				list, err := s.svc.Posts.ListByUser(p.Context, me.ID, true)
				return objects(list, postObject), err
			})),
			"mySkills": s.field(listOf(s.userSkill), nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				list, err := s.svc.Skills.ListForUser(p.Context, me.ID)
				return objects(list, userSkillObject), err
			})),
			"myInquiriesReceived": s.field(listOf(s.inquiry), nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				list, err := s.svc.Inquiries.ListReceived(p.Context, me.ID)
				return objects(list, inquiryObject), err
			})),
			"myInquiriesSent": s.field(listOf(s.inquiry), nil, s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
				list, err := s.svc.Inquiries.ListSent(p.Context, me.ID)
				return objects(list, inquiryObject), err
			})),
		},
	})
}
