package api

import (
	v1 "github.com/chantier/avancement/internal/api/v1"
	"github.com/chantier/avancement/internal/config"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/rest/middleware"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health        *v1.HealthHandler
	ProgressState *v1.ProgressStateHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, sentryService *sentry.Service) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger, sentryService),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.AuthenticateMiddleware(cfg, logger))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	scopes := router.Group("/scopes")
	{
		scopes.GET("/:scope_id/progress-states", handlers.ProgressState.ListScopeProgressStates)
		scopes.GET("/:scope_id/progress-summary", handlers.ProgressState.GetScopeSummary)
	}

	states := router.Group("/progress-states")
	{
		states.POST("", handlers.ProgressState.CreateProgressState)
		states.GET("/:id", handlers.ProgressState.GetProgressState)
		states.PUT("/:id", handlers.ProgressState.UpdateProgressState)
		states.DELETE("/:id", handlers.ProgressState.DeleteProgressState)
		states.GET("/:id/next", handlers.ProgressState.GetNextProgressState)
		states.POST("/:id/finalize", handlers.ProgressState.FinalizeProgressState)
		states.POST("/:id/reopen", handlers.ProgressState.ReopenProgressState)

		states.POST("/:id/lines", handlers.ProgressState.AddLineItem)
		states.PUT("/:id/lines/:line_id", handlers.ProgressState.UpdateLineItem)
		states.DELETE("/:id/lines/:line_id", handlers.ProgressState.RemoveLineItem)

		states.POST("/:id/change-orders", handlers.ProgressState.AddChangeOrder)
		states.PUT("/:id/change-orders/:item_id", handlers.ProgressState.UpdateChangeOrder)
		states.DELETE("/:id/change-orders/:item_id", handlers.ProgressState.RemoveChangeOrder)
	}
}
