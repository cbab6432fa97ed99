package repository

import (
	"github.com/chantier/avancement/internal/domain/progress"
	"github.com/chantier/avancement/internal/domain/scope"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	postgresRepo "github.com/chantier/avancement/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewProgressStateRepository(db *postgres.DB, logger *logger.Logger) progress.StateRepository {
	return postgresRepo.NewProgressStateRepository(db, logger)
}

func NewProgressLineRepository(db *postgres.DB, logger *logger.Logger) progress.LineItemRepository {
	return postgresRepo.NewProgressLineRepository(db, logger)
}

func NewChangeOrderRepository(db *postgres.DB, logger *logger.Logger) progress.ChangeOrderRepository {
	return postgresRepo.NewChangeOrderRepository(db, logger)
}

func NewScopeRepository(db *postgres.DB, logger *logger.Logger) scope.Repository {
	return postgresRepo.NewScopeRepository(db, logger)
}
