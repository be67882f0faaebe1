package gqlserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/graphql-go/graphql"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/service"
)

type registerInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileInput struct {
	Username          *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Password          *string `json:"password" validate:"omitempty,min=6"`
	Bio               *string `json:"bio" validate:"omitempty,max=500"`
	GithubURL         *string `json:"githubUrl" validate:"omitempty,url"`
	LinkedinURL       *string `json:"linkedinUrl" validate:"omitempty,url"`
	PortfolioURL      *string `json:"portfolioUrl" validate:"omitempty,url"`
	ProfilePictureURL *string `json:"profilePictureUrl" validate:"omitempty,url"`
}

type projectInput struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	TechStack     *string `json:"techStack" validate:"omitempty,max=500"`
	ProjectURL    *string `json:"projectUrl" validate:"omitempty,url"`
	GithubRepoURL *string `json:"githubRepoUrl" validate:"omitempty,url"`
	ImageURL      *string `json:"imageUrl" validate:"omitempty,url"`
}

type postInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=300"`
	Content     *string `json:"content" validate:"omitempty,min=1"`
	IsPublished *bool   `json:"isPublished"`
}

type inquiryArgs struct {
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	Subject    string `json:"subject" validate:"required,max=255"`
	Message    string `json:"message" validate:"required"`
}

type roleArgs struct {
	ID       string `json:"id" validate:"required,uuid"`
	RoleName string `json:"roleName" validate:"required,oneof=user admin"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func inputObject(name string, fields map[string]graphql.Input) *graphql.InputObject {
	cfg := graphql.InputObjectConfigFieldMap{}
	for k, t := range fields {
		cfg[k] = &graphql.InputObjectFieldConfig{Type: t}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: cfg})
}

var (
	registerInputType = inputObject("RegisterInput", map[string]graphql.Input{
		"username": nonNullString, "email": nonNullString, "password": nonNullString,
	})
	loginInputType = inputObject("LoginInput", map[string]graphql.Input{
		"email": nonNullString, "password": nonNullString,
	})
	userUpdateInputType = inputObject("UserUpdateInput", map[string]graphql.Input{
		"username": graphql.String, "email": graphql.String, "password": graphql.String, "bio": graphql.String,
		"githubUrl": graphql.String, "linkedinUrl": graphql.String, "portfolioUrl": graphql.String,
		"profilePictureUrl": graphql.String,
	})
	projectInputType = inputObject("ProjectInput", map[string]graphql.Input{
		"name": nonNullString, "description": graphql.String, "techStack": graphql.String,
		"projectUrl": graphql.String, "githubRepoUrl": graphql.String, "imageUrl": graphql.String,
	})
	projectUpdateInputType = inputObject("ProjectUpdateInput", map[string]graphql.Input{
		"name": graphql.String, "description": graphql.String, "techStack": graphql.String,
		"projectUrl": graphql.String, "githubRepoUrl": graphql.String, "imageUrl": graphql.String,
	})
	blogPostInputType = inputObject("BlogPostInput", map[string]graphql.Input{
		"title": nonNullString, "content": nonNullString, "isPublished": graphql.Boolean,
	})
	blogPostUpdateInputType = inputObject("BlogPostUpdateInput", map[string]graphql.Input{
		"title": graphql.String, "content": graphql.String, "isPublished": graphql.Boolean,
	})
)

func inputArg(t graphql.Input, extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{"input": {Type: graphql.NewNonNull(t)}}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

type clientIPKey struct{}

func withClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func (s *Schema) mutationType() *graphql.Object {
	authPayload := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"accessToken":  &graphql.Field{Type: nonNullString},
			"refreshToken": &graphql.Field{Type: nonNullString},
			"expiresAt":    &graphql.Field{Type: nonNullTime},
			"user":         &graphql.Field{Type: graphql.NewNonNull(s.user)},
		},
	})
	refreshPayload := graphql.NewObject(graphql.ObjectConfig{
		Name: "RefreshPayload",
		Fields: graphql.Fields{
			"accessToken": &graphql.Field{Type: nonNullString},
			"expiresAt":   &graphql.Field{Type: nonNullTime},
		},
	})
	refreshArg := graphql.FieldConfigArgument{"refreshToken": {Type: nonNullString}}
	skillArgs := graphql.FieldConfigArgument{
		"skillId":          {Type: nonNullID},
		"proficiencyLevel": {Type: proficiencyEnum},
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": s.field(graphql.NewNonNull(s.user), inputArg(registerInputType, nil), s.register),
			"login":    s.field(graphql.NewNonNull(authPayload), inputArg(loginInputType, nil), s.login),
			"refreshToken": s.field(graphql.NewNonNull(refreshPayload), refreshArg, func(p graphql.ResolveParams) (any, error) {
				rt, _ := p.Args["refreshToken"].(string)
				tokens, err := s.svc.Auth.Refresh(p.Context, rt)
				if err != nil {
					return nil, err
				}
				return map[string]any{"accessToken": tokens.AccessToken, "expiresAt": tokens.ExpiresAt}, nil
			}),
			"logout": s.field(nonNullBool, refreshArg, func(p graphql.ResolveParams) (any, error) {
				rt, _ := p.Args["refreshToken"].(string)
				if err := s.svc.Auth.Logout(p.Context, rt); err != nil {
					return nil, err
				}
				return true, nil
			}),

			"updateMyProfile": s.field(graphql.NewNonNull(s.user), inputArg(userUpdateInputType, nil),
				s.ownerOf(authz.ResourceUser, self, s.updateProfile)),
			"deleteMyAccount": s.field(nonNullBool, nil,
				s.ownerOf(authz.ResourceUser, self, func(p graphql.ResolveParams, me model.Identity) (any, error) {
					return deleted(s.svc.Users.Delete(p.Context, me, me.ID))
				})),
			"setUserRole": s.field(graphql.NewNonNull(s.user),
				graphql.FieldConfigArgument{"id": {Type: nonNullID}, "roleName": {Type: nonNullString}},
				s.authorized(model.RoleAdmin)(s.setRole)),

			"createProject": s.field(graphql.NewNonNull(s.project), inputArg(projectInputType, nil), s.authenticated(s.createProject)),
			"updateProject": s.field(graphql.NewNonNull(s.project), inputArg(projectUpdateInputType, idArg("id")),
				s.ownerOf(authz.ResourceProject, idFrom("id"), s.updateProject)),
			"deleteProject": s.field(nonNullBool, idArg("id"),
				s.ownerOf(authz.ResourceProject, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
					return deleted(s.svc.Projects.Delete(p.Context, parseID(p.Args["id"])))
				})),

			"createBlogPost": s.field(graphql.NewNonNull(s.post), inputArg(blogPostInputType, nil), s.authenticated(s.createPost)),
			"updateBlogPost": s.field(graphql.NewNonNull(s.post), inputArg(blogPostUpdateInputType, idArg("id")),
				s.ownerOf(authz.ResourceBlogPost, idFrom("id"), s.updatePost)),
			"deleteBlogPost": s.field(nonNullBool, idArg("id"),
				s.ownerOf(authz.ResourceBlogPost, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
					return deleted(s.svc.Posts.Delete(p.Context, parseID(p.Args["id"])))
				})),

			"addSkillToProfile": s.field(graphql.NewNonNull(s.userSkill), skillArgs,
				s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
					skillID, err := argID(p, "skillId")
					if err != nil {
						return nil, err
					}
					level, _ := p.Args["proficiencyLevel"].(string)
					us, err := s.svc.Skills.AddToUser(p.Context, me.ID, skillID, level)
					if err != nil {
						return nil, err
					}
					return userSkillObject(us), nil
				})),
			"updateSkillProficiency": s.field(graphql.NewNonNull(s.userSkill),
				graphql.FieldConfigArgument{"skillId": {Type: nonNullID}, "proficiencyLevel": {Type: graphql.NewNonNull(proficiencyEnum)}},
				s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
					skillID, err := argID(p, "skillId")
					if err != nil {
						return nil, err
					}
					level, _ := p.Args["proficiencyLevel"].(string)
					us, err := s.svc.Skills.SetProficiency(p.Context, me.ID, skillID, level)
					if err != nil {
						return nil, err
					}
					return userSkillObject(us), nil
				})),
			"removeSkillFromProfile": s.field(nonNullBool, idArg("skillId"),
				s.authenticated(func(p graphql.ResolveParams, me model.Identity) (any, error) {
					skillID, err := argID(p, "skillId")
					if err != nil {
						return nil, err
					}
					return deleted(s.svc.Skills.RemoveFromUser(p.Context, me.ID, skillID))
				})),

			"sendInquiry": s.field(graphql.NewNonNull(s.inquiry),
				graphql.FieldConfigArgument{
					"receiverId": {Type: nonNullID},
					"subject":    {Type: nonNullString},
					"message":    {Type: nonNullString},
				},
				s.authenticated(s.sendInquiry)),
			"markInquiryRead": s.field(graphql.NewNonNull(s.inquiry),
				graphql.FieldConfigArgument{"id": {Type: nonNullID}, "readStatus": {Type: nonNullBool}},
				s.ownerOf(authz.ResourceInquiry, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
					read, _ := p.Args["readStatus"].(bool)
					in, err := s.svc.Inquiries.MarkRead(p.Context, parseID(p.Args["id"]), read)
					if err != nil {
						return nil, err
					}
					return inquiryObject(in), nil
				})),
			"deleteInquiry": s.field(nonNullBool, idArg("id"),
				s.ownerOf(authz.ResourceInquiry, idFrom("id"), func(p graphql.ResolveParams, _ model.Identity) (any, error) {
					return deleted(s.svc.Inquiries.Delete(p.Context, parseID(p.Args["id"])))
				})),
		},
	})
}

func (s *Schema) register(p graphql.ResolveParams) (any, error) {
	var in registerInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	u, err := s.svc.Auth.Register(p.Context, service.RegisterInput{
		Username: in.Username, Email: in.Email, Password: in.Password,
	})
	if err != nil {
		return nil, err
	}
	return userObject(u), nil
}

func (s *Schema) login(p graphql.ResolveParams) (any, error) {
	var in loginInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	tokens, u, err := s.svc.Auth.Login(p.Context, in.Email, in.Password, clientIP(p.Context))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresAt":    tokens.ExpiresAt,
		"user":         userObject(&u),
	}, nil
}

func (s *Schema) updateProfile(p graphql.ResolveParams, me model.Identity) (any, error) {
	var in profileInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	u, err := s.svc.Users.Update(p.Context, me.ID, service.UpdateUserInput{
		Username: in.Username, Email: in.Email, Password: in.Password, Bio: in.Bio,
		GithubURL: in.GithubURL, LinkedinURL: in.LinkedinURL, PortfolioURL: in.PortfolioURL,
		ProfilePictureURL: in.ProfilePictureURL,
	})
	if err != nil {
		return nil, err
	}
	return userObject(u), nil
}

func (s *Schema) setRole(p graphql.ResolveParams, me model.Identity) (any, error) {
	var args roleArgs
	if err := s.decode(p.Args, &args); err != nil {
		return nil, err
	}
	u, err := s.svc.Users.SetRole(p.Context, me, uuid.FromStringOrNil(args.ID), model.Role(args.RoleName))
	if err != nil {
		return nil, err
	}
	return userObject(u), nil
}

func (s *Schema) createProject(p graphql.ResolveParams, me model.Identity) (any, error) {
	var in projectInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	pr, err := s.svc.Projects.Create(p.Context, me.ID, model.Project{
		Name: deref(in.Name), Description: deref(in.Description), TechStack: deref(in.TechStack),
		ProjectURL: deref(in.ProjectURL), GithubRepoURL: deref(in.GithubRepoURL), ImageURL: deref(in.ImageURL),
	})
	if err != nil {
		return nil, err
	}
	return projectObject(pr), nil
}

func (s *Schema) updateProject(p graphql.ResolveParams, _ model.Identity) (any, error) {
	var in projectInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	pr, err := s.svc.Projects.Update(p.Context, parseID(p.Args["id"]), model.ProjectPatch{
		Name: in.Name, Description: in.Description, TechStack: in.TechStack,
		ProjectURL: in.ProjectURL, GithubRepoURL: in.GithubRepoURL, ImageURL: in.ImageURL,
	})
	if err != nil {
		return nil, err
	}
	return projectObject(pr), nil
}

func (s *Schema) createPost(p graphql.ResolveParams, me model.Identity) (any, error) {
	var in postInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	post := model.BlogPost{Title: deref(in.Title), Content: deref(in.Content)}
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}
	out, err := s.svc.Posts.Create(p.Context, me.ID, post)
	if err != nil {
		return nil, err
	}
	return postObject(out), nil
}

func (s *Schema) updatePost(p graphql.ResolveParams, _ model.Identity) (any, error) {
	var in postInput
	if err := s.input(p, &in); err != nil {
		return nil, err
	}
	out, err := s.svc.Posts.Update(p.Context, parseID(p.Args["id"]), model.BlogPostPatch{
		Title: in.Title, Content: in.Content, IsPublished: in.IsPublished,
	})
	if err != nil {
		return nil, err
	}
	return postObject(out), nil
}

func (s *Schema) sendInquiry(p graphql.ResolveParams, me model.Identity) (any, error) {
	var args inquiryArgs
	if err := s.decode(p.Args, &args); err != nil {
		return nil, err
	}
	in, err := s.svc.Inquiries.Send(p.Context, me.ID, uuid.FromStringOrNil(args.ReceiverID), args.Subject, args.Message)
	if err != nil {
		return nil, err
	}
	return inquiryObject(in), nil
}
