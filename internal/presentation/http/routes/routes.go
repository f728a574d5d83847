// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/spotlight-go/internal/application/container"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/spotlight-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(container.Logger))
	r.Use(middleware.CORSMiddleware(config.CORSOrigins))

	// Initialize handlers
	editorHandlers := handlers.NewEditorHandlers(container.EditorService, container.Logger, container.PerfTracker)
	renderHandlers := handlers.NewRenderHandlers(container.RenderService, container.CodeService, container.Logger)
	streamHandlers := handlers.NewStreamHandlers(
		container.EditorService,
		container.Broadcaster,
		container.SysOpBroadcaster,
		config.CORSOrigins,
		messaging.ConnConfig{WriteTimeout: config.WSWriteTimeout, PingInterval: config.WSPingInterval},
		container.Logger,
	)
	sysopHandlers := handlers.NewSysOpHandlers(container.SysOpService, container.LogBroadcaster, container.Logger)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.Health)
		api.GET("/code", renderHandlers.GetCode)
		api.POST("/project", editorHandlers.ProjectScene)
		api.POST("/sessions", editorHandlers.CreateSession)

		session := api.Group("/sessions/:" + middleware.SessionIDParam)
		session.Use(middleware.SessionAuth(container.EditorService, container.Logger, container.PerfTracker))
		{
			session.GET("", editorHandlers.GetSession)
			session.DELETE("", editorHandlers.DeleteSession)
			session.GET("/projection", editorHandlers.GetProjection)

			session.POST("/spotlights", editorHandlers.AddSpotlight)
			session.POST("/spotlights/:sid/duplicate", editorHandlers.DuplicateSpotlight)
			session.POST("/spotlights/:sid/mirror", editorHandlers.MirrorSpotlight)
			session.PATCH("/spotlights/:sid", editorHandlers.UpdateSpotlight)
			session.DELETE("/spotlights/:sid", editorHandlers.RemoveSpotlight)

			session.PUT("/background", editorHandlers.SetBackground)
			session.PUT("/blend-mode", editorHandlers.SetBlendMode)

			session.GET("/markup", renderHandlers.GetMarkup)
			session.GET("/preview.png", renderHandlers.GetPreview)
			session.GET("/preview.webp", renderHandlers.GetPreview)
			session.GET("/ws", streamHandlers.SessionStream)
		}

		sysop := api.Group("/sysop")
		sysop.Use(middleware.SysOpAuth(config.SysopToken, container.Logger))
		{
			sysop.GET("/stats", sysopHandlers.GetStats)
			sysop.GET("/perf", sysopHandlers.GetPerformance)
			sysop.GET("/logs/levels", sysopHandlers.GetLogLevels)
			sysop.POST("/logs/levels", sysopHandlers.SetLogLevel)
			sysop.GET("/logs/stream", sysopHandlers.StreamLogs)
			sysop.GET("/ws", streamHandlers.SysOpStream)
		}
	}

	return r
}
