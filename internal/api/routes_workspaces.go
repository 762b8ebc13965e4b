package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/handlers"
	"github.com/charlesng35/huddle/internal/middleware"
)

type workspaceRouteDeps struct {
	Workspaces *handlers.WorkspaceHandler
	Events     *handlers.EventHandler
	Todos      *handlers.TodoHandler
	Notes      *handlers.NoteHandler
	Files      *handlers.FileHandler
	Authorizer middleware.WorkspaceAuthorizer
}

func registerWorkspaceRoutes(api *gin.RouterGroup, deps workspaceRouteDeps) {
	workspaces := api.Group("/workspaces")
	{
		workspaces.GET("", deps.Workspaces.List)
		workspaces.POST("", deps.Workspaces.Create)
	}

	scoped := workspaces.Group("/:workspaceID")
	scoped.Use(middleware.RequireWorkspaceMember(deps.Authorizer))
	{
		scoped.GET("", deps.Workspaces.Get)
		scoped.DELETE("/membership", deps.Workspaces.Leave)
		scoped.GET("/members", deps.Workspaces.ListMembers)
		scoped.GET("/invites", deps.Workspaces.ListInvites)
		scoped.POST("/invites", deps.Workspaces.Invite)
		scoped.GET("/activity", deps.Workspaces.Activity)

		scoped.GET("/events", deps.Events.List)
		scoped.POST("/events", deps.Events.Create)
		scoped.DELETE("/events/:id", deps.Events.Delete)

		scoped.GET("/todos", deps.Todos.List)
		scoped.POST("/todos", deps.Todos.Create)
		scoped.PATCH("/todos/:id", deps.Todos.UpdateStatus)
		scoped.DELETE("/todos/:id", deps.Todos.Delete)

		scoped.GET("/notes", deps.Notes.List)
		scoped.POST("/notes", deps.Notes.Create)
		scoped.PATCH("/notes/:id", deps.Notes.UpdateContent)
		scoped.DELETE("/notes/:id", deps.Notes.Delete)

		scoped.GET("/files", deps.Files.List)
		scoped.POST("/files", deps.Files.Upload)
		scoped.DELETE("/files", deps.Files.Delete)
	}
}
