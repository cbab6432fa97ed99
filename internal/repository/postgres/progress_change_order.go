package postgres

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/progress"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/types"
)

const changeOrderColumns = `
	id, tenant_id, state_id, origin_id, article_code, description, unit,
	unit_price, position,
	quantity_previous, quantity_current, quantity_total,
	amount_previous, amount_current, amount_total,
	status, created_at, updated_at, created_by, updated_by`

const changeOrderValues = `
	:id, :tenant_id, :state_id, :origin_id, :article_code, :description, :unit,
	:unit_price, :position,
	:quantity_previous, :quantity_current, :quantity_total,
	:amount_previous, :amount_current, :amount_total,
	:status, :created_at, :updated_at, :created_by, :updated_by`

type changeOrderRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewChangeOrderRepository creates a new instance of the change order item repository
func NewChangeOrderRepository(db *postgres.DB, logger *logger.Logger) progress.ChangeOrderRepository {
	return &changeOrderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *changeOrderRepository) Create(ctx context.Context, item *progress.ChangeOrderItem) error {
	query := `INSERT INTO progress_change_order_items (` + changeOrderColumns + `) VALUES (` + changeOrderValues + `)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, item); err != nil {
		return postgres.WrapError(err, "change order item")
	}
	return nil
}

func (r *changeOrderRepository) CreateMany(ctx context.Context, items []*progress.ChangeOrderItem) error {
	if len(items) == 0 {
		return nil
	}

	r.logger.Debugw("creating change order items",
		"state_id", items[0].StateID,
		"count", len(items),
	)

	query := `INSERT INTO progress_change_order_items (` + changeOrderColumns + `) VALUES (` + changeOrderValues + `)`
	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, items); err != nil {
		return postgres.WrapError(err, "change order items")
	}
	return nil
}

func (r *changeOrderRepository) Get(ctx context.Context, id string) (*progress.ChangeOrderItem, error) {
	query := `SELECT ` + changeOrderColumns + `
		FROM progress_change_order_items
		WHERE id = $1 AND tenant_id = $2`

	var item progress.ChangeOrderItem
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &item, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("change order item %s", id))
	}
	return &item, nil
}

func (r *changeOrderRepository) Update(ctx context.Context, item *progress.ChangeOrderItem) error {
	query := `
		UPDATE progress_change_order_items
		SET article_code = :article_code,
			description = :description,
			unit = :unit,
			unit_price = :unit_price,
			quantity_previous = :quantity_previous,
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
		return postgres.WrapError(err, "change order item")
	}
	return requireOneRow(result, "change order item", item.ID)
}

func (r *changeOrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM progress_change_order_items WHERE id = $1 AND tenant_id = $2`, id, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "change order item")
	}
	return requireOneRow(result, "change order item", id)
}

func (r *changeOrderRepository) ListByState(ctx context.Context, stateID string) ([]*progress.ChangeOrderItem, error) {
	query := `SELECT ` + changeOrderColumns + `
		FROM progress_change_order_items
		WHERE state_id = $1 AND tenant_id = $2
		ORDER BY position ASC, created_at ASC`

	var items []*progress.ChangeOrderItem
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query, stateID, types.GetTenantID(ctx)); err != nil {
		return nil, postgres.WrapError(err, "change order items")
	}
	return items, nil
}

func (r *changeOrderRepository) DeleteByState(ctx context.Context, stateID string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM progress_change_order_items WHERE state_id = $1 AND tenant_id = $2`, stateID, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "change order items")
	}
	return nil
}
