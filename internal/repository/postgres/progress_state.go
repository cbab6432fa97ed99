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

const progressStateColumns = `
	id, tenant_id, scope_id, scope_type, sequence_number, snapshot_date, comments,
	is_finalized, finalized_at, author_id, version,
	status, created_at, updated_at, created_by, updated_by`

type progressStateRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewProgressStateRepository creates a new instance of the progress state repository
func NewProgressStateRepository(db *postgres.DB, logger *logger.Logger) progress.StateRepository {
	return &progressStateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *progressStateRepository) Create(ctx context.Context, state *progress.State) error {
	query := `
		INSERT INTO progress_states (` + progressStateColumns + `)
		VALUES (
			:id, :tenant_id, :scope_id, :scope_type, :sequence_number, :snapshot_date, :comments,
			:is_finalized, :finalized_at, :author_id, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating progress state",
		"state_id", state.ID,
		"scope_id", state.ScopeID,
		"sequence_number", state.SequenceNumber,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, state); err != nil {
		return postgres.WrapError(err, "progress state")
	}
	return nil
}

func (r *progressStateRepository) Get(ctx context.Context, id string) (*progress.State, error) {
	return r.get(ctx, id, false)
}

func (r *progressStateRepository) GetForUpdate(ctx context.Context, id string) (*progress.State, error) {
	if !postgres.InTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			WithHint("An internal error occurred").
			Mark(ierr.ErrSystem)
	}
	return r.get(ctx, id, true)
}

func (r *progressStateRepository) get(ctx context.Context, id string, forUpdate bool) (*progress.State, error) {
	query := `SELECT ` + progressStateColumns + `
		FROM progress_states
		WHERE id = $1 AND tenant_id = $2 AND status = $3`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var state progress.State
	err := r.db.GetQuerier(ctx).GetContext(ctx, &state, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("progress state %s", id))
	}
	return &state, nil
}

func (r *progressStateRepository) Update(ctx context.Context, state *progress.State, expectedVersion int) error {
	query := `
		UPDATE progress_states
		SET snapshot_date = $1,
			comments = $2,
			is_finalized = $3,
			finalized_at = $4,
			version = $5,
			updated_at = $6,
			updated_by = $7
		WHERE id = $8 AND tenant_id = $9 AND version = $10`

	r.logger.Debugw("updating progress state",
		"state_id", state.ID,
		"expected_version", expectedVersion,
		"version", state.Version,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		state.SnapshotDate,
		state.Comments,
		state.IsFinalized,
		state.FinalizedAt,
		state.Version,
		state.UpdatedAt,
		state.UpdatedBy,
		state.ID,
		types.GetTenantID(ctx),
		expectedVersion,
	)
	if err != nil {
		return postgres.WrapError(err, "progress state")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError(err, "progress state")
	}
	if rows == 0 {
		return ierr.NewErrorf("progress state %s was modified concurrently", state.ID).
			WithHint("The progress state was modified by someone else, reload it and retry").
			WithReportableDetails(map[string]any{
				"state_id":         state.ID,
				"expected_version": expectedVersion,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *progressStateRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM progress_states WHERE id = $1 AND tenant_id = $2`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, types.GetTenantID(ctx))
	if err != nil {
		return postgres.WrapError(err, "progress state")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return postgres.WrapError(err, "progress state")
	}
	if rows == 0 {
		return ierr.NewErrorf("progress state %s not found", id).
			WithHintf("Progress state %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *progressStateRepository) List(ctx context.Context, filter *types.ProgressStateFilter) ([]*progress.State, error) {
	where, args := r.where(ctx, filter)

	order := "ASC"
	if filter != nil && filter.GetOrder() == types.OrderDesc {
		order = "DESC"
	}

	query := `SELECT ` + progressStateColumns + ` FROM progress_states` + where +
		` ORDER BY sequence_number ` + order
	if filter != nil && !filter.IsUnlimited() {
		args = append(args, filter.GetLimit(), filter.GetOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var states []*progress.State
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &states, query, args...); err != nil {
		return nil, postgres.WrapError(err, "progress states")
	}
	return states, nil
}

func (r *progressStateRepository) Count(ctx context.Context, filter *types.ProgressStateFilter) (int, error) {
	where, args := r.where(ctx, filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM progress_states`+where, args...); err != nil {
		return 0, postgres.WrapError(err, "progress states")
	}
	return count, nil
}

func (r *progressStateRepository) where(ctx context.Context, filter *types.ProgressStateFilter) (string, []any) {
	args := []any{types.GetTenantID(ctx), types.StatusPublished}
	where := ` WHERE tenant_id = $1 AND status = $2`

	if filter == nil {
		return where, args
	}
	if filter.ScopeID != "" {
		args = append(args, filter.ScopeID)
		where += fmt.Sprintf(" AND scope_id = $%d", len(args))
	}
	if filter.IsFinalized != nil {
		args = append(args, *filter.IsFinalized)
		where += fmt.Sprintf(" AND is_finalized = $%d", len(args))
	}
	return where, args
}

func (r *progressStateRepository) GetBySequence(ctx context.Context, scopeID string, sequence int) (*progress.State, error) {
	query := `SELECT ` + progressStateColumns + `
		FROM progress_states
		WHERE scope_id = $1 AND sequence_number = $2 AND tenant_id = $3 AND status = $4`

	var state progress.State
	err := r.db.GetQuerier(ctx).GetContext(ctx, &state, query, scopeID, sequence, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("progress state %d of scope %s", sequence, scopeID))
	}
	return &state, nil
}

func (r *progressStateRepository) GetLatest(ctx context.Context, scopeID string) (*progress.State, error) {
	query := `SELECT ` + progressStateColumns + `
		FROM progress_states
		WHERE scope_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY sequence_number DESC
		LIMIT 1`

	var state progress.State
	err := r.db.GetQuerier(ctx).GetContext(ctx, &state, query, scopeID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("progress state of scope %s", scopeID))
	}
	return &state, nil
}

func (r *progressStateRepository) GetNext(ctx context.Context, state *progress.State) (*progress.State, error) {
	query := `SELECT ` + progressStateColumns + `
		FROM progress_states
		WHERE scope_id = $1 AND sequence_number > $2 AND tenant_id = $3 AND status = $4
		ORDER BY sequence_number ASC
		LIMIT 1`

	var next progress.State
	err := r.db.GetQuerier(ctx).GetContext(ctx, &next, query,
		state.ScopeID, state.SequenceNumber, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, fmt.Sprintf("progress state following %s", state.ID))
	}
	return &next, nil
}
