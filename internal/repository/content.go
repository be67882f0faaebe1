package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/model"
)

// ProjectRepository stores portfolio projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, id uuid.UUID, p model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlogPostRepository stores blog posts.
type BlogPostRepository interface {
	Create(ctx context.Context, p *model.BlogPost) error
	// GetByID returns the post; unpublished posts are returned only when includeDrafts is set.
	GetByID(ctx context.Context, id uuid.UUID, includeDrafts bool) (*model.BlogPost, error)
	ListPublished(ctx context.Context) ([]model.BlogPost, error)
	ListByUser(ctx context.Context, userID uuid.UUID, includeDrafts bool) ([]model.BlogPost, error)
	Update(ctx context.Context, id uuid.UUID, p model.BlogPostPatch) (*model.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SkillRepository stores the skill catalogue and user skill links.
type SkillRepository interface {
	Create(ctx context.Context, name string) (*model.Skill, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Skill, error)
	List(ctx context.Context) ([]model.Skill, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*model.Skill, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.UserSkill, error)
	// AddToUser links a skill; ErrConflict if already linked, ErrNotFound if the skill is unknown.
	AddToUser(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error)
	SetProficiency(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error)
	RemoveFromUser(ctx context.Context, userID, skillID uuid.UUID) error
}

// InquiryRepository stores inter-user messages.
type InquiryRepository interface {
	Create(ctx context.Context, in *model.Inquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Inquiry, error)
	List(ctx context.Context) ([]model.Inquiry, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error)
	SetReadStatus(ctx context.Context, id uuid.UUID, read bool) (*model.Inquiry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
