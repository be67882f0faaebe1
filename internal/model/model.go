// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is a role name from the fixed roles table.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin" // privileged override role for ownership checks
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// Identity is the per-request resolved caller: who they are and their current role.
type Identity struct {
	ID       uuid.UUID
	Username string
	Role     Role
}

// IsAdmin reports whether the identity holds the privileged override role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Tokens collects issued access/refresh tokens (refresh empty on refresh calls).
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// User represents an account. The password is only ever held as a bcrypt digest.
type User struct {
	ID                uuid.UUID // PK
	Username          string    // unique
	Email             string    // unique
	PwdHash           string    // bcrypt digest
	RoleID            int32     // FK -> roles.id
	Role              Role      // joined roles.name
	Bio               string
	GithubURL         string
	LinkedinURL       string
	PortfolioURL      string
	ProfilePictureURL string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Identity returns the identity view of the user.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserPatch is a partial profile update; nil fields are left untouched.
type UserPatch struct {
	Username          *string
	Email             *string
	PwdHash           *string // already hashed by the service
	Bio               *string
	GithubURL         *string
	LinkedinURL       *string
	PortfolioURL      *string
	ProfilePictureURL *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PwdHash == nil && p.Bio == nil &&
		p.GithubURL == nil && p.LinkedinURL == nil && p.PortfolioURL == nil && p.ProfilePictureURL == nil
}

// RefreshToken is a ledger record. Revoked only ever moves false -> true.
type RefreshToken struct {
	Token     string // PK, opaque
	UserID    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Project is a portfolio project owned by UserID.
type Project struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Description   string
	TechStack     string
	ProjectURL    string
	GithubRepoURL string
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name          *string
	Description   *string
	TechStack     *string
	ProjectURL    *string
	GithubRepoURL *string
	ImageURL      *string
}

// BlogPost is an article owned by UserID.
type BlogPost struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Content     string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlogPostPatch is a partial blog post update.
type BlogPostPatch struct {
	Title       *string
	Content     *string
	IsPublished *bool
}

// Skill is an entry of the admin-managed skill catalogue.
type Skill struct {
	ID   uuid.UUID
	Name string
}

// Proficiency levels accepted for user skills.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyExpert       = "expert"
)

// UserSkill links a user to a catalogue skill.
type UserSkill struct {
	UserID      uuid.UUID
	SkillID     uuid.UUID
	SkillName   string
	Proficiency string
}

// Inquiry is a message from one user to another. SenderID is null once the sender is deleted.
type Inquiry struct {
	ID         uuid.UUID
	SenderID   uuid.NullUUID
	ReceiverID uuid.UUID // owner attribute
	Subject    string
	Message    string
	ReadStatus bool
	SentAt     time.Time
}
