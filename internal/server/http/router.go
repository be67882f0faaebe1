package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/model"
)

// RegisterRoutes mounts the REST API under /api/v1 and the health probe.
func RegisterRoutes(e *echo.Echo, h *Handler, gate *authz.Gate) {
	e.GET("/health", h.Health)

	authed := Require(gate, authz.Authenticated(), "")
	admin := Require(gate, authz.RequireRoles(model.RoleAdmin), "")
	owns := func(res authz.Resource) echo.MiddlewareFunc {
		return Require(gate, authz.Authenticated().Owns(res), "id")
	}

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.Refresh)
	auth.POST("/logout", h.Logout)

	users := api.Group("/users")
	users.GET("", h.ListUsers, admin)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser, owns(authz.ResourceUser))
	users.DELETE("/:id", h.DeleteUser, owns(authz.ResourceUser))
	users.PUT("/:id/role", h.SetUserRole, admin)

	projects := api.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.GET("/:id", h.GetProject)
	projects.POST("", h.CreateProject, authed)
	projects.PUT("/:id", h.UpdateProject, owns(authz.ResourceProject))
	projects.DELETE("/:id", h.DeleteProject, owns(authz.ResourceProject))

	posts := api.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.GET("/:id", h.GetPost)
	posts.POST("", h.CreatePost, authed)
	posts.PUT("/:id", h.UpdatePost, owns(authz.ResourceBlogPost))
	posts.DELETE("/:id", h.DeletePost, owns(authz.ResourceBlogPost))

	skills := api.Group("/skills")
	skills.GET("", h.ListSkills)
	skills.GET("/:id", h.GetSkill)
	skills.POST("", h.CreateSkill, admin)
	skills.PUT("/:id", h.RenameSkill, admin)
	skills.DELETE("/:id", h.DeleteSkill, admin)

	// GET takes a user id, PUT and DELETE a skill id of the caller's profile
	userSkills := api.Group("/user-skills")
	userSkills.GET("/:id", h.ListUserSkills)
	userSkills.POST("", h.AddUserSkill, authed)
	userSkills.PUT("/:id", h.SetUserSkillProficiency, authed)
	userSkills.DELETE("/:id", h.RemoveUserSkill, authed)

	inquiries := api.Group("/inquiries")
	inquiries.POST("", h.SendInquiry, authed)
	inquiries.GET("", h.ListInquiries, admin)
	inquiries.GET("/received", h.ListReceivedInquiries, authed)
	inquiries.GET("/sent", h.ListSentInquiries, authed)
	inquiries.GET("/:id", h.GetInquiry, owns(authz.ResourceInquiry))
	inquiries.PUT("/:id/read-status", h.SetInquiryReadStatus, owns(authz.ResourceInquiry))
	inquiries.DELETE("/:id", h.DeleteInquiry, owns(authz.ResourceInquiry))
}
