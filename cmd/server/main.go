package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chantier/avancement/internal/api"
	v1 "github.com/chantier/avancement/internal/api/v1"
	"github.com/chantier/avancement/internal/cache"
	"github.com/chantier/avancement/internal/config"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/repository"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/service"
	"github.com/chantier/avancement/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewCache,

			// Monitoring
			sentry.NewSentryService,

			// Postgres
			postgres.NewDB,
			provideDBClient,
			provideDBPinger,

			// Repositories
			repository.NewProgressStateRepository,
			repository.NewProgressLineRepository,
			repository.NewChangeOrderRepository,
			repository.NewScopeRepository,
		),
		fx.Provide(
			service.NewServiceParams,
			service.NewProgressService,
			service.NewProgressReportService,
		),
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			// request DTOs validate through the package level validator
			validator.NewValidator,
			sentry.RegisterHooks,
			startAPIServer,
		),
	)
	app.Run()
}

// provideDBClient records every transaction as a sentry span when enabled
func provideDBClient(db *postgres.DB, sentryService *sentry.Service, logger *logger.Logger) postgres.IClient {
	return postgres.NewSentryClient(db, sentryService, logger)
}

func provideDBPinger(db *postgres.DB) postgres.Pinger {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	db postgres.Pinger,
	progressService service.ProgressService,
	reportService service.ProgressReportService,
) api.Handlers {
	return api.Handlers{
		Health:        v1.NewHealthHandler(db, logger),
		ProgressState: v1.NewProgressStateHandler(progressService, reportService, logger),
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			err := srv.Shutdown(ctx)
			db.Close()
			return err
		},
	})
}
