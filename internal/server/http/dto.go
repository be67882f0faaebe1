package httpserver

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/model"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type updateUserRequest struct {
	Username          *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Password          *string `json:"password" validate:"omitempty,min=6"`
	Bio               *string `json:"bio" validate:"omitempty,max=500"`
	GithubURL         *string `json:"github_url" validate:"omitempty,url"`
	LinkedinURL       *string `json:"linkedin_url" validate:"omitempty,url"`
	PortfolioURL      *string `json:"portfolio_url" validate:"omitempty,url"`
	ProfilePictureURL *string `json:"profile_picture_url" validate:"omitempty,url"`
}

type setRoleRequest struct {
	RoleName string `json:"roleName" validate:"required,oneof=user admin"`
}

type projectRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	TechStack     *string `json:"tech_stack" validate:"omitempty,max=500"`
	ProjectURL    *string `json:"project_url" validate:"omitempty,url"`
	GithubRepoURL *string `json:"github_repo_url" validate:"omitempty,url"`
	ImageURL      *string `json:"image_url" validate:"omitempty,url"`
}

type postRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=300"`
	Content     *string `json:"content" validate:"omitempty,min=1"`
	IsPublished *bool   `json:"is_published"`
}

type skillRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type addUserSkillRequest struct {
	SkillID          string `json:"skill_id" validate:"required,uuid"`
	ProficiencyLevel string `json:"proficiency_level" validate:"omitempty,oneof=beginner intermediate expert"`
}

type setProficiencyRequest struct {
	ProficiencyLevel string `json:"proficiency_level" validate:"required,oneof=beginner intermediate expert"`
}

type inquiryRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Subject    string `json:"subject" validate:"required,max=255"`
	Message    string `json:"message" validate:"required"`
}

type readStatusRequest struct {
	ReadStatus *bool `json:"read_status" validate:"required"`
}

type identityJSON struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type userJSON struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Bio               string    `json:"bio"`
	GithubURL         string    `json:"github_url"`
	LinkedinURL       string    `json:"linkedin_url"`
	PortfolioURL      string    `json:"portfolio_url"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toUser(u model.User) userJSON {
	return userJSON{
		ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role), Bio: u.Bio,
		GithubURL: u.GithubURL, LinkedinURL: u.LinkedinURL, PortfolioURL: u.PortfolioURL,
		ProfilePictureURL: u.ProfilePictureURL, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

type projectJSON struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	TechStack     string    `json:"tech_stack"`
	ProjectURL    string    `json:"project_url"`
	GithubRepoURL string    `json:"github_repo_url"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProject(p model.Project) projectJSON {
	return projectJSON{
		ID: p.ID, UserID: p.UserID, Name: p.Name, Description: p.Description, TechStack: p.TechStack,
		ProjectURL: p.ProjectURL, GithubRepoURL: p.GithubRepoURL, ImageURL: p.ImageURL,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

type postJSON struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPost(p model.BlogPost) postJSON {
	return postJSON{
		ID: p.ID, UserID: p.UserID, Title: p.Title, Content: p.Content, IsPublished: p.IsPublished,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

type skillJSON struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type userSkillJSON struct {
	UserID           uuid.UUID `json:"user_id"`
	SkillID          uuid.UUID `json:"skill_id"`
	SkillName        string    `json:"skill_name"`
	ProficiencyLevel string    `json:"proficiency_level"`
}

func toUserSkill(us model.UserSkill) userSkillJSON {
	return userSkillJSON{UserID: us.UserID, SkillID: us.SkillID, SkillName: us.SkillName, ProficiencyLevel: us.Proficiency}
}

type inquiryJSON struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   *uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	ReadStatus bool       `json:"read_status"`
	SentAt     time.Time  `json:"sent_at"`
}

func toInquiry(in model.Inquiry) inquiryJSON {
	out := inquiryJSON{
		ID: in.ID, ReceiverID: in.ReceiverID, Subject: in.Subject, Message: in.Message,
		ReadStatus: in.ReadStatus, SentAt: in.SentAt,
	}
	if in.SenderID.Valid {
		sender := in.SenderID.UUID
		out.SenderID = &sender
	}
	return out
}

func mapAll[T, R any](items []T, f func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, f(it))
	}
	return out
}
