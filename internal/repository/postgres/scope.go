package postgres

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/scope"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/types"
)

type scopeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewScopeRepository creates a read-only repository over contract and order data
func NewScopeRepository(db *postgres.DB, logger *logger.Logger) scope.Repository {
	return &scopeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *scopeRepository) Get(ctx context.Context, id string) (*scope.Scope, error) {
	query := `
		SELECT id, tenant_id, scope_type, reference, label, contract_id, subcontractor_id, order_locked,
			status, created_at, updated_at, created_by, updated_by
		FROM scopes
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var s scope.Scope
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("scope %s", id))
	}
	return &s, nil
}

func (r *scopeRepository) ListLines(ctx context.Context, scopeID string) ([]*scope.Line, error) {
	query := `
		SELECT id, tenant_id, scope_id, article_code, description, unit, unit_price, contract_quantity, position,
			status, created_at, updated_at, created_by, updated_by
		FROM scope_lines
		WHERE scope_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY position ASC`

	r.logger.Debugw("listing scope lines", "scope_id", scopeID)

	var lines []*scope.Line
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &lines, query, scopeID, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, "scope lines")
	}
	return lines, nil
}

func (r *scopeRepository) GetLine(ctx context.Context, id string) (*scope.Line, error) {
	query := `
		SELECT id, tenant_id, scope_id, article_code, description, unit, unit_price, contract_quantity, position,
			status, created_at, updated_at, created_by, updated_by
		FROM scope_lines
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var line scope.Line
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &line, query, id, types.GetTenantID(ctx), types.StatusPublished); err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("scope line %s", id))
	}
	return &line, nil
}
