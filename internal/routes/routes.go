package routes

import (
	"github.com/gin-gonic/gin"

	"taskfigma/internal/handlers"
	"taskfigma/internal/middleware"
)

// Options carries the settings the route table depends on.
type Options struct {
	JWTSecret    []byte
	AuthRequired bool
	CORSOrigin   string
}

func SetupRoutes(
	r *gin.Engine,
	opts Options,
	taskHandler *handlers.TaskHandler,
	directoryHandler *handlers.DirectoryHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	r.Use(middleware.CORS(opts.CORSOrigin))

	// ---- public
	r.GET("/healthz", healthHandler.Check)

	// ---- tasks (token optional unless auth.required)
	api := r.Group("/api/task",
		middleware.AuthMiddleware(opts.JWTSecret),
		middleware.RequireActor(opts.AuthRequired),
	)
	{
		api.POST("/save", taskHandler.Save)
		api.GET("/allTasks", taskHandler.List)
		api.GET("/pendingTask", taskHandler.Pending)
		api.GET("/dueTask", taskHandler.Due)
		api.GET("/status-counts", taskHandler.StatusCounts)

		api.GET("/projects", directoryHandler.ListProjects)
		api.POST("/projects", directoryHandler.CreateProject)
		api.GET("/users", directoryHandler.ListUsers)
		api.POST("/users", directoryHandler.CreateUser)

		api.GET("/:id", taskHandler.GetByID)
		api.POST("/:id/comment", taskHandler.Comment)
		api.POST("/:id/delete", taskHandler.DeleteComment)
		api.GET("/:id/report", taskHandler.Report)
		api.GET("/:id/feed", taskHandler.Feed)
	}

	return r
}
