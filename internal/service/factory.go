package service

import (
	"github.com/chantier/avancement/internal/cache"
	"github.com/chantier/avancement/internal/config"
	"github.com/chantier/avancement/internal/domain/progress"
	"github.com/chantier/avancement/internal/domain/scope"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/sentry"
	"go.uber.org/fx"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	ProgressStateRepo progress.StateRepository
	LineItemRepo      progress.LineItemRepository
	ChangeOrderRepo   progress.ChangeOrderRepository
	ScopeRepo         scope.Repository
}

// ServiceParamsIn is the fx parameter object ServiceParams is built from
type ServiceParamsIn struct {
	fx.In

	Logger            *logger.Logger
	Config            *config.Configuration
	DB                postgres.IClient
	Cache             cache.Cache
	Sentry            *sentry.Service
	ProgressStateRepo progress.StateRepository
	LineItemRepo      progress.LineItemRepository
	ChangeOrderRepo   progress.ChangeOrderRepository
	ScopeRepo         scope.Repository
}

// NewServiceParams creates a new service params
func NewServiceParams(in ServiceParamsIn) ServiceParams {
	return ServiceParams{
		Logger:            in.Logger,
		Config:            in.Config,
		DB:                in.DB,
		Cache:             in.Cache,
		Sentry:            in.Sentry,
		ProgressStateRepo: in.ProgressStateRepo,
		LineItemRepo:      in.LineItemRepo,
		ChangeOrderRepo:   in.ChangeOrderRepo,
		ScopeRepo:         in.ScopeRepo,
	}
}
