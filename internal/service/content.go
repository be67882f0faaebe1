package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/repository"
)

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", errs.ErrBadRequest, field)
	}
	return nil
}

func requiredPtr(field string, v *string) error {
	if v == nil {
		return nil
	}
	return required(field, *v)
}

// ProjectService manages portfolio projects.
type ProjectService struct{ repo repository.ProjectRepository }

// NewProjectService constructs a ProjectService over repo.
func NewProjectService(repo repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// Create stores p owned by owner; the owner is never taken from input.
func (s *ProjectService) Create(ctx context.Context, owner uuid.UUID, p model.Project) (*model.Project, error) {
	if err := required("name", p.Name); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p.ID, p.UserID = id, owner
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every project, newest first.
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) { return s.repo.List(ctx) }

// ListByUser returns one user's projects.
func (s *ProjectService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies a partial change; an empty name is rejected.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, p model.ProjectPatch) (*model.Project, error) {
	if err := requiredPtr("name", p.Name); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error { return s.repo.Delete(ctx, id) }

// BlogPostService manages blog posts. Drafts are visible only through the
// owner-scoped calls.
type BlogPostService struct{ repo repository.BlogPostRepository }

// NewBlogPostService constructs a BlogPostService over repo.
func NewBlogPostService(repo repository.BlogPostRepository) *BlogPostService {
	return &BlogPostService{repo: repo}
}

// Create stores a post owned by owner.
func (s *BlogPostService) Create(ctx context.Context, owner uuid.UUID, p model.BlogPost) (*model.BlogPost, error) {
	if err := required("title", p.Title); err != nil {
		return nil, err
	}
	if err := required("content", p.Content); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p.ID, p.UserID = id, owner
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPublished returns a post only if it is published.
func (s *BlogPostService) GetPublished(ctx context.Context, id uuid.UUID) (*model.BlogPost, error) {
	return s.repo.GetByID(ctx, id, false)
}

// ListPublished returns published posts only.
func (s *BlogPostService) ListPublished(ctx context.Context) ([]model.BlogPost, error) {
	return s.repo.ListPublished(ctx)
}

// ListByUser returns one user's posts; drafts only when includeDrafts.
func (s *BlogPostService) ListByUser(ctx context.Context, userID uuid.UUID, includeDrafts bool) ([]model.BlogPost, error) {
	return s.repo.ListByUser(ctx, userID, includeDrafts)
}

// Update applies a partial change.
func (s *BlogPostService) Update(ctx context.Context, id uuid.UUID, p model.BlogPostPatch) (*model.BlogPost, error) {
	if err := requiredPtr("title", p.Title); err != nil {
		return nil, err
	}
	if err := requiredPtr("content", p.Content); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes a post.
func (s *BlogPostService) Delete(ctx context.Context, id uuid.UUID) error { return s.repo.Delete(ctx, id) }

// SkillService manages the skill catalogue and the skills users attach to
// their own profile.
type SkillService struct{ repo repository.SkillRepository }

// NewSkillService constructs a SkillService over repo.
func NewSkillService(repo repository.SkillRepository) *SkillService { return &SkillService{repo: repo} }

func validLevel(level string) (string, error) {
	switch level {
	case "":
		return model.ProficiencyIntermediate, nil
	case model.ProficiencyBeginner, model.ProficiencyIntermediate, model.ProficiencyExpert:
		return level, nil
	}
	return "", fmt.Errorf("%w: unknown proficiency %q", errs.ErrBadRequest, level)
}

// Create adds a skill to the catalog.
func (s *SkillService) Create(ctx context.Context, name string) (*model.Skill, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, strings.TrimSpace(name))
}

// Get returns one skill.
func (s *SkillService) Get(ctx context.Context, id uuid.UUID) (*model.Skill, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the catalog.
func (s *SkillService) List(ctx context.Context) ([]model.Skill, error) { return s.repo.List(ctx) }

// Rename changes a skill name.
func (s *SkillService) Rename(ctx context.Context, id uuid.UUID, name string) (*model.Skill, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	return s.repo.Rename(ctx, id, strings.TrimSpace(name))
}

// Delete removes a skill from the catalog.
func (s *SkillService) Delete(ctx context.Context, id uuid.UUID) error { return s.repo.Delete(ctx, id) }

// ListForUser returns a user's skills with their levels.
func (s *SkillService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.UserSkill, error) {
	return s.repo.ListForUser(ctx, userID)
}

// AddToUser links a catalogue skill to userID. An empty level means intermediate.
func (s *SkillService) AddToUser(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	level, err := validLevel(level)
	if err != nil {
		return nil, err
	}
	return s.repo.AddToUser(ctx, userID, skillID, level)
}

// SetProficiency changes the level of one of a user's skills.
func (s *SkillService) SetProficiency(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	if level == "" {
		return nil, fmt.Errorf("%w: proficiency is required", errs.ErrBadRequest)
	}
	level, err := validLevel(level)
	if err != nil {
		return nil, err
	}
	return s.repo.SetProficiency(ctx, userID, skillID, level)
}

// RemoveFromUser drops a skill from a user's profile.
func (s *SkillService) RemoveFromUser(ctx context.Context, userID, skillID uuid.UUID) error {
	return s.repo.RemoveFromUser(ctx, userID, skillID)
}

// InquiryService manages messages between users. The receiver owns an inquiry.
type InquiryService struct {
	repo  repository.InquiryRepository
	users repository.UserRepository
}

// NewInquiryService constructs an InquiryService.
func NewInquiryService(repo repository.InquiryRepository, users repository.UserRepository) *InquiryService {
	return &InquiryService{repo: repo, users: users}
}

// Send stores a message from sender to receiverID. Messaging oneself is rejected.
func (s *InquiryService) Send(ctx context.Context, sender, receiverID uuid.UUID, subject, message string) (*model.Inquiry, error) {
	if sender == receiverID {
		return nil, fmt.Errorf("%w: cannot send an inquiry to yourself", errs.ErrBadRequest)
	}
	if err := required("subject", subject); err != nil {
		return nil, err
	}
	if err := required("message", message); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	in := &model.Inquiry{
		ID:         id,
		SenderID:   uuid.NullUUID{UUID: sender, Valid: true},
		ReceiverID: receiverID,
		Subject:    subject,
		Message:    message,
	}
	if err := s.repo.Create(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Get returns one inquiry.
func (s *InquiryService) Get(ctx context.Context, id uuid.UUID) (*model.Inquiry, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every inquiry.
func (s *InquiryService) List(ctx context.Context) ([]model.Inquiry, error) { return s.repo.List(ctx) }

// ListReceived returns the inbox of userID.
func (s *InquiryService) ListReceived(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return s.repo.ListReceived(ctx, userID)
}

// ListSent returns what userID has sent.
func (s *InquiryService) ListSent(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return s.repo.ListSent(ctx, userID)
}

// MarkRead sets the read flag.
func (s *InquiryService) MarkRead(ctx context.Context, id uuid.UUID, read bool) (*model.Inquiry, error) {
	return s.repo.SetReadStatus(ctx, id, read)
}

// Delete removes an inquiry.
func (s *InquiryService) Delete(ctx context.Context, id uuid.UUID) error { return s.repo.Delete(ctx, id) }
