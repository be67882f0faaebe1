package gqlserver

import (
	"strconv"

	"github.com/and161185/devfolio/internal/model"
)

// Objects handed to graphql-go are plain maps keyed by schema field name, so
// the default resolver serves scalar fields. Keys ending in "Id" that are not
// part of the schema carry relations for the field resolvers.

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func userObject(u *model.User) map[string]any {
	return map[string]any{
		"id":                u.ID.String(),
		"username":          u.Username,
		"email":             u.Email,
		"bio":               optional(u.Bio),
		"githubUrl":         optional(u.GithubURL),
		"linkedinUrl":       optional(u.LinkedinURL),
		"portfolioUrl":      optional(u.PortfolioURL),
		"profilePictureUrl": optional(u.ProfilePictureURL),
		"role":              map[string]any{"id": strconv.Itoa(int(u.RoleID)), "name": string(u.Role)},
		"createdAt":         u.CreatedAt,
		"updatedAt":         u.UpdatedAt,
	}
}

func projectObject(p *model.Project) map[string]any {
	return map[string]any{
		"id":            p.ID.String(),
		"userId":        p.UserID.String(),
		"name":          p.Name,
		"description":   optional(p.Description),
		"techStack":     optional(p.TechStack),
		"projectUrl":    optional(p.ProjectURL),
		"githubRepoUrl": optional(p.GithubRepoURL),
		"imageUrl":      optional(p.ImageURL),
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func postObject(p *model.BlogPost) map[string]any {
	return map[string]any{
		"id":          p.ID.String(),
		"userId":      p.UserID.String(),
		"title":       p.Title,
		"content":     p.Content,
		"isPublished": p.IsPublished,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

func skillObject(s *model.Skill) map[string]any {
	return map[string]any{"id": s.ID.String(), "name": s.Name}
}

func userSkillObject(us *model.UserSkill) map[string]any {
	return map[string]any{
		"userId":           us.UserID.String(),
		"skill":            map[string]any{"id": us.SkillID.String(), "name": us.SkillName},
		"proficiencyLevel": us.Proficiency,
	}
}

func inquiryObject(in *model.Inquiry) map[string]any {
	obj := map[string]any{
		"id":         in.ID.String(),
		"receiverId": in.ReceiverID.String(),
		"subject":    in.Subject,
		"message":    in.Message,
		"readStatus": in.ReadStatus,
		"sentAt":     in.SentAt,
	}
	if in.SenderID.Valid {
		obj["senderId"] = in.SenderID.UUID.String()
	}
	return obj
}

// objects converts a slice with one of the functions above.
func objects[T any](items []T, f func(*T) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, f(&items[i]))
	}
	return out
}
