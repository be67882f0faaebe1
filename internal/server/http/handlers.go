package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
	"github.com/and161185/devfolio/internal/service"
)

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the REST surface. Authorization happens in route
// middleware before any handler runs.
type Handler struct {
	svc    service.Services
	health Pinger
	log    *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc service.Services, health Pinger, log *zap.Logger) *Handler {
	return &Handler{svc: svc, health: health, log: log}
}

func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", errs.ErrBadRequest)
	}
	return c.Validate(dst)
}

type message struct {
	Message string `json:"message"`
}

// Health handles GET /health and reports 503 when storage does not answer.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "error", "error": "database unreachable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// auth

// Register handles POST /auth/register.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	u, err := h.svc.Auth.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "user registered", "user": toUser(*u)})
}

type loginResponse struct {
	Message      string       `json:"message"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         identityJSON `json:"user"`
}

// Login handles POST /auth/login and returns a token pair.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	tokens, u, err := h.svc.Auth.Login(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{
		Message:      "logged in",
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		User:         identityJSON{ID: u.ID, Username: u.Username, Role: string(u.Role)},
	})
}

// Refresh handles POST /auth/refresh-token and returns a new access token.
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	tokens, err := h.svc.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":     "new access token issued",
		"accessToken": tokens.AccessToken,
		"expiresAt":   tokens.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. It answers 200 for any token.
func (h *Handler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.svc.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Message: "logged out"})
}

// users

// ListUsers handles GET /users.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.Users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(users, toUser))
}

// GetUser handles GET /users/:id.
func (h *Handler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(*u))
}

// UpdateUser handles PUT /users/:id.
func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	u, err := h.svc.Users.Update(c.Request().Context(), id, service.UpdateUserInput{
		Username: req.Username, Email: req.Email, Password: req.Password, Bio: req.Bio,
		GithubURL: req.GithubURL, LinkedinURL: req.LinkedinURL, PortfolioURL: req.PortfolioURL,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(*u))
}

// DeleteUser handles DELETE /users/:id.
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	actor, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.svc.Users.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetUserRole handles PUT /users/:id/role.
func (h *Handler) SetUserRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setRoleRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	actor, err := identity(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Users.SetRole(c.Request().Context(), actor, id, model.Role(req.RoleName))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "role updated", "user": toUser(*u)})
}

// projects

// ListProjects handles GET /projects.
func (h *Handler) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		list []model.Project
		err  error
	)
	if raw := c.QueryParam("user_id"); raw != "" {
		uid, perr := uuid.FromString(raw)
		if perr != nil {
			return fmt.Errorf("%w: user_id must be a valid id", errs.ErrBadRequest)
		}
		list, err = h.svc.Projects.ListByUser(ctx, uid)
	} else {
		list, err = h.svc.Projects.List(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(list, toProject))
}

// GetProject handles GET /projects/:id.
func (h *Handler) GetProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProject(*p))
}

func (r projectRequest) patch() model.ProjectPatch {
	return model.ProjectPatch{
		Name: r.Name, Description: r.Description, TechStack: r.TechStack,
		ProjectURL: r.ProjectURL, GithubRepoURL: r.GithubRepoURL, ImageURL: r.ImageURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateProject handles POST /projects; the caller becomes the owner.
func (h *Handler) CreateProject(c echo.Context) error {
	var req projectRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Projects.Create(c.Request().Context(), me.ID, model.Project{
		Name: deref(req.Name), Description: deref(req.Description), TechStack: deref(req.TechStack),
		ProjectURL: deref(req.ProjectURL), GithubRepoURL: deref(req.GithubRepoURL), ImageURL: deref(req.ImageURL),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProject(*p))
}

// UpdateProject handles PUT /projects/:id.
func (h *Handler) UpdateProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req projectRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Projects.Update(c.Request().Context(), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProject(*p))
}

// DeleteProject handles DELETE /projects/:id.
func (h *Handler) DeleteProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Projects.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// posts

// ListPosts handles GET /posts. Drafts are never listed.
func (h *Handler) ListPosts(c echo.Context) error {
	list, err := h.svc.Posts.ListPublished(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(list, toPost))
}

// GetPost handles GET /posts/:id.
func (h *Handler) GetPost(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.Posts.GetPublished(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPost(*p))
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	p := model.BlogPost{Title: deref(req.Title), Content: deref(req.Content)}
	if req.IsPublished != nil {
		p.IsPublished = *req.IsPublished
	}
	out, err := h.svc.Posts.Create(c.Request().Context(), me.ID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPost(*out))
}

// UpdatePost handles PUT /posts/:id.
func (h *Handler) UpdatePost(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req postRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Posts.Update(c.Request().Context(), id, model.BlogPostPatch{
		Title: req.Title, Content: req.Content, IsPublished: req.IsPublished,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPost(*p))
}

// DeletePost handles DELETE /posts/:id.
func (h *Handler) DeletePost(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Posts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// skills

// ListSkills handles GET /skills.
func (h *Handler) ListSkills(c echo.Context) error {
	list, err := h.svc.Skills.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(list, func(s model.Skill) skillJSON { return skillJSON(s) }))
}

// GetSkill handles GET /skills/:id.
func (h *Handler) GetSkill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.svc.Skills.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, skillJSON(*s))
}

// CreateSkill handles POST /skills.
func (h *Handler) CreateSkill(c echo.Context) error {
	var req skillRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := h.svc.Skills.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, skillJSON(*s))
}

// RenameSkill handles PUT /skills/:id.
func (h *Handler) RenameSkill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req skillRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	s, err := h.svc.Skills.Rename(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, skillJSON(*s))
}

// DeleteSkill handles DELETE /skills/:id.
func (h *Handler) DeleteSkill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Skills.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// user skills: writes always target the caller's own profile

// ListUserSkills handles GET /user-skills/:id.
func (h *Handler) ListUserSkills(c echo.Context) error {
	uid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.svc.Skills.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(list, toUserSkill))
}

// AddUserSkill handles POST /user-skills for the caller's profile.
func (h *Handler) AddUserSkill(c echo.Context) error {
	var req addUserSkillRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	us, err := h.svc.Skills.AddToUser(c.Request().Context(), me.ID, uuid.FromStringOrNil(req.SkillID), req.ProficiencyLevel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserSkill(*us))
}

// SetUserSkillProficiency handles PUT /user-skills/:id.
func (h *Handler) SetUserSkillProficiency(c echo.Context) error {
	skillID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setProficiencyRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	us, err := h.svc.Skills.SetProficiency(c.Request().Context(), me.ID, skillID, req.ProficiencyLevel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserSkill(*us))
}

// RemoveUserSkill handles DELETE /user-skills/:id.
func (h *Handler) RemoveUserSkill(c echo.Context) error {
	skillID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.svc.Skills.RemoveFromUser(c.Request().Context(), me.ID, skillID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// inquiries

// SendInquiry handles POST /inquiries.
func (h *Handler) SendInquiry(c echo.Context) error {
	var req inquiryRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	me, err := identity(c)
	if err != nil {
		return err
	}
	in, err := h.svc.Inquiries.Send(c.Request().Context(), me.ID, uuid.FromStringOrNil(req.ReceiverID), req.Subject, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "inquiry sent", "inquiry": toInquiry(*in)})
}

func (h *Handler) listMine(c echo.Context, list func(context.Context, uuid.UUID) ([]model.Inquiry, error)) error {
	me, err := identity(c)
	if err != nil {
		return err
	}
	items, err := list(c.Request().Context(), me.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, toInquiry))
}

// ListReceivedInquiries handles GET /inquiries/received.
func (h *Handler) ListReceivedInquiries(c echo.Context) error {
	return h.listMine(c, h.svc.Inquiries.ListReceived)
}

// ListSentInquiries handles GET /inquiries/sent.
func (h *Handler) ListSentInquiries(c echo.Context) error {
	return h.listMine(c, h.svc.Inquiries.ListSent)
}

// ListInquiries handles GET /inquiries.
func (h *Handler) ListInquiries(c echo.Context) error {
	items, err := h.svc.Inquiries.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, toInquiry))
}

// GetInquiry handles GET /inquiries/:id.
func (h *Handler) GetInquiry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := h.svc.Inquiries.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInquiry(*in))
}

// SetInquiryReadStatus handles PUT /inquiries/:id/read-status.
func (h *Handler) SetInquiryReadStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req readStatusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in, err := h.svc.Inquiries.MarkRead(c.Request().Context(), id, *req.ReadStatus)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInquiry(*in))
}

// DeleteInquiry handles DELETE /inquiries/:id.
func (h *Handler) DeleteInquiry(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Inquiries.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
