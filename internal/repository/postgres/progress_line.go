package postgres

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/types"
)

const progressLineColumns = `
	id, tenant_id, state_id, scope_line_id, article_code, description, unit,
	unit_price, contract_quantity, position,
	quantity_previous, quantity_current, quantity_total,
	amount_previous, amount_current, amount_total,
	status, created_at, updated_at, created_by, updated_by`

const progressLineValues = `
	:id, :tenant_id, :state_id, :scope_line_id, :article_code, :description, :unit,
	:unit_price, :contract_quantity, :position,
	:quantity_previous, :quantity_current, :quantity_total,
	:amount_previous, :amount_current, :amount_total,
	:status, :created_at, :updated_at, :created_by, :updated_by`

type progressLineRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewProgressLineRepository creates a new instance of the line item repository
func NewProgressLineRepository(db *postgres.DB, logger *logger.Logger) progress.LineItemRepository {
	return &progressLineRepository{
		db:     db,
		logger: logger,
	}
}

func (r *progressLineRepository) Create(ctx context.Context, item *progress.LineItem) error {
	query := `INSERT INTO progress_line_items (` + progressLineColumns + `) VALUES (` + progressLineValues + `)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, item); err != nil {
		return postgres.WrapError(err, "line item")
	}
	return nil
}

func (r *progressLineRepository) CreateMany(ctx context.Context, items []*progress.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	r.logger.Debugw("creating line items",
		"state_id", items[0].StateID,
		"count", len(items),
	)

	// sqlx expands a slice argument into a multi-row VALUES list
	query := `INSERT INTO progress_line_items (` + progressLineColumns + `) VALUES (` + progressLineValues + `)`
	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, items); err != nil {
		return postgres.WrapError(err, "line items")
	}
	return nil
}

func (r *progressLineRepository) Get(ctx context.Context, id string) (*progress.LineItem, error) {
	query := `SELECT ` + progressLineColumns + `
		FROM progress_line_items
		WHERE id = $1 AND tenant_id = $2`

	var item progress.LineItem
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &item, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("line item %s", id))
	}
	return &item, nil
}

func (r *progressLineRepository) Update(ctx context.Context, item *progress.LineItem) error {
	query := `
		UPDATE progress_line_items
		SET quantity_previous = :quantity_previous,
			quantity_current = :quantity_current,
			quantity_total = :quantity_total,
			amount_previous = :amount_previous,
			amount_current = :amount_current,
			amount_total = :amount_total,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, item)
	if err != nil {
		return postgres.WrapError(err, "line item")
	}
	return requireOneRow(result, "line item", item.ID)
}

func (r *progressLineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM progress_line_items WHERE id = $1 AND tenant_id = $2`, id, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "line item")
	}
	return requireOneRow(result, "line item", id)
}

func (r *progressLineRepository) ListByState(ctx context.Context, stateID string) ([]*progress.LineItem, error) {
	query := `SELECT ` + progressLineColumns + `
		FROM progress_line_items
		WHERE state_id = $1 AND tenant_id = $2
		ORDER BY position ASC, created_at ASC`

	var items []*progress.LineItem
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query, stateID, types.GetTenantID(ctx)); err != nil {
		return nil, postgres.WrapError(err, "line items")
	}
	return items, nil
}

func (r *progressLineRepository) DeleteByState(ctx context.Context, stateID string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM progress_line_items WHERE state_id = $1 AND tenant_id = $2`, stateID, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "line items")
	}
	return nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireOneRow(result rowsAffected, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError(err, entity)
	}
	if rows == 0 {
		return ierr.NewErrorf("%s %s not found", entity, id).
			WithHintf("The %s does not exist", entity).
			WithReportableDetails(map[string]any{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
