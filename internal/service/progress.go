package service

import (
	"context"
	"time"

	"github.com/chantier/avancement/internal/api/dto"
	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/samber/lo"
)

// ProgressService applies every mutation of progress states: header edits,
// line and change order entry, finalization and reopening. Contract and
// subcontractor order scopes share one implementation; the scope kind only
// matters when billing starts. Every method takes the acting user explicitly.
type ProgressService interface {
	// CreateState opens the first period of a scope. Later periods are
	// created by FinalizeState.
	CreateState(ctx context.Context, actor string, req *dto.CreateProgressStateRequest) (*dto.ProgressStateResponse, error)
	UpdateState(ctx context.Context, actor string, stateID string, req *dto.UpdateProgressStateRequest) (*dto.ProgressStateResponse, error)
	// DeleteState removes a Draft state that has no successor, with its items
	DeleteState(ctx context.Context, actor string, stateID string) error

	AddLine(ctx context.Context, actor string, stateID string, req *dto.AddLineItemRequest) (*dto.LineItemResponse, error)
	UpdateLine(ctx context.Context, actor string, stateID string, lineID string, req *dto.UpdateLineItemRequest) (*dto.LineItemResponse, error)
	RemoveLine(ctx context.Context, actor string, stateID string, lineID string) error

	AddChangeOrder(ctx context.Context, actor string, stateID string, req *dto.AddChangeOrderRequest) (*dto.ChangeOrderItemResponse, error)
	UpdateChangeOrder(ctx context.Context, actor string, stateID string, itemID string, req *dto.UpdateChangeOrderRequest) (*dto.ChangeOrderItemResponse, error)
	RemoveChangeOrder(ctx context.Context, actor string, stateID string, itemID string) error

	// FinalizeState locks the state and, in the same transaction, spawns its
	// successor with every item carried forward. Failures other than rule
	// violations roll everything back and are reported as ErrTransient.
	FinalizeState(ctx context.Context, actor string, stateID string) (*dto.FinalizeProgressStateResponse, error)

	// ReopenState unlocks a finalized state. An untouched successor is
	// discarded; a successor that was already edited blocks the reopen.
	ReopenState(ctx context.Context, actor string, stateID string) (*dto.ProgressStateResponse, error)
}

type progressService struct {
	ServiceParams
	now func() time.Time
}

func NewProgressService(params ServiceParams) ProgressService {
	return &progressService{
		ServiceParams: params,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) CreateState(ctx context.Context, actor string, req *dto.CreateProgressStateRequest) (*dto.ProgressStateResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var state *progress.State
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		sc, err := s.ScopeRepo.Get(ctx, req.ScopeID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return ierr.WithError(err).
					WithHintf("Scope %s does not exist", req.ScopeID).
					WithReportableDetails(map[string]any{
						"scope_id": req.ScopeID,
					}).
					Mark(ierr.ErrNotFound)
			}
			return err
		}

		if !sc.CanStartBilling() {
			return ierr.NewErrorf("order %s is not locked", sc.ID).
				WithHintf("Subcontractor order %s must be locked before progress billing can start", sc.Reference).
				WithReportableDetails(map[string]any{
					"scope_id":   sc.ID,
					"scope_type": sc.Type,
				}).
				Mark(ierr.ErrReferential)
		}

		count, err := s.ProgressStateRepo.Count(ctx, types.NewProgressStateFilter(sc.ID))
		if err != nil {
			return err
		}
		if count > 0 {
			return ierr.NewErrorf("scope %s already has progress states", sc.ID).
				WithHint("Only the first progress state can be created directly, later ones are created by finalizing the previous state").
				WithReportableDetails(map[string]any{
					"scope_id":    sc.ID,
					"state_count": count,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		base := types.GetDefaultBaseModel(ctx, actor)
		state = &progress.State{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_STATE),
			ScopeID:        sc.ID,
			ScopeType:      sc.Type,
			SequenceNumber: 1,
			SnapshotDate:   req.SnapshotDate.UTC(),
			Comments:       req.Comments,
			AuthorID:       actor,
			Version:        progress.InitialVersion,
			BaseModel:      base,
		}
		if err := state.Validate(); err != nil {
			return err
		}

		if err := s.ProgressStateRepo.Create(ctx, state); err != nil {
			return err
		}

		if !req.ShouldSeedLines() {
			return nil
		}

		lines, err := s.ScopeRepo.ListLines(ctx, sc.ID)
		if err != nil {
			return err
		}
		items := make([]*progress.LineItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, progress.NewLineItem(state.ID, line, progress.OpeningFigures(), base))
		}
		if err := validateItems(items); err != nil {
			return err
		}
		return s.LineItemRepo.CreateMany(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created progress state",
		"state_id", state.ID,
		"scope_id", state.ScopeID,
		"scope_type", state.ScopeType,
		"actor", actor,
	)

	s.invalidate(ctx, state.ID)
	return s.stateResponse(ctx, state)
}

func (s *progressService) UpdateState(ctx context.Context, actor string, stateID string, req *dto.UpdateProgressStateRequest) (*dto.ProgressStateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		if req.SnapshotDate != nil {
			state.SnapshotDate = req.SnapshotDate.UTC()
		}
		if req.Comments != nil {
			state.Comments = *req.Comments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.stateResponse(ctx, state)
}

func (s *progressService) DeleteState(ctx context.Context, actor string, stateID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	var deleted *progress.State
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		state, err := s.lockDraftState(ctx, stateID)
		if err != nil {
			return err
		}

		next, err := s.ProgressStateRepo.GetNext(ctx, state)
		if err == nil {
			return ierr.NewErrorf("progress state %s has a successor", state.ID).
				WithHintf("Progress state #%d cannot be deleted because state #%d follows it", state.SequenceNumber, next.SequenceNumber).
				WithReportableDetails(map[string]any{
					"state_id":     state.ID,
					"successor_id": next.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if !ierr.IsNotFound(err) {
			return err
		}

		if err := s.deleteStateWithItems(ctx, state.ID); err != nil {
			return err
		}
		deleted = state
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("deleted progress state",
		"state_id", deleted.ID,
		"scope_id", deleted.ScopeID,
		"sequence_number", deleted.SequenceNumber,
		"actor", actor,
	)

	s.invalidate(ctx, deleted.ID)
	return nil
}

func (s *progressService) deleteStateWithItems(ctx context.Context, stateID string) error {
	if err := s.LineItemRepo.DeleteByState(ctx, stateID); err != nil {
		return err
	}
	if err := s.ChangeOrderRepo.DeleteByState(ctx, stateID); err != nil {
		return err
	}
	return s.ProgressStateRepo.Delete(ctx, stateID)
}

func (s *progressService) AddLine(ctx context.Context, actor string, stateID string, req *dto.AddLineItemRequest) (*dto.LineItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var item *progress.LineItem
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		line, err := s.ScopeRepo.GetLine(ctx, req.ScopeLineID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return ierr.WithError(err).
					WithHintf("Contract line %s does not exist", req.ScopeLineID).
					Mark(ierr.ErrNotFound)
			}
			return err
		}
		if line.ScopeID != state.ScopeID {
			return ierr.NewErrorf("line %s does not belong to scope %s", line.ID, state.ScopeID).
				WithHint("The line belongs to another contract or order").
				WithReportableDetails(map[string]any{
					"scope_line_id": line.ID,
					"line_scope_id": line.ScopeID,
					"scope_id":      state.ScopeID,
				}).
				Mark(ierr.ErrReferential)
		}

		existing, err := s.LineItemRepo.ListByState(ctx, state.ID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(existing, func(i *progress.LineItem) bool { return i.ScopeLineID == line.ID }) {
			return ierr.NewErrorf("line %s already billed in state %s", line.ID, state.ID).
				WithHint("This contract line is already part of the progress state").
				WithReportableDetails(map[string]any{
					"scope_line_id": line.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}

		previous, err := s.previousLineFigures(ctx, state, line.ID)
		if err != nil {
			return err
		}

		item = progress.NewLineItem(state.ID, line, previous, types.GetDefaultBaseModel(ctx, actor))
		if err := item.Apply(req.QuantityCurrent); err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}
		return s.LineItemRepo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("added line item",
		"state_id", stateID,
		"line_item_id", item.ID,
		"scope_line_id", item.ScopeLineID,
		"actor", actor,
	)
	return dto.NewLineItemResponse(item), nil
}

// previousLineFigures returns the baseline of a line added to state: the
// carried-forward totals of the same contract line in the predecessor, or
// zero when the line was never billed.
func (s *progressService) previousLineFigures(ctx context.Context, state *progress.State, scopeLineID string) (progress.Figures, error) {
	if state.SequenceNumber <= 1 {
		return progress.OpeningFigures(), nil
	}

	predecessor, err := s.ProgressStateRepo.GetBySequence(ctx, state.ScopeID, state.SequenceNumber-1)
	if err != nil {
		if ierr.IsNotFound(err) {
			return progress.OpeningFigures(), nil
		}
		return progress.Figures{}, err
	}

	lines, err := s.LineItemRepo.ListByState(ctx, predecessor.ID)
	if err != nil {
		return progress.Figures{}, err
	}
	if prev, ok := lo.Find(lines, func(i *progress.LineItem) bool { return i.ScopeLineID == scopeLineID }); ok {
		return progress.CarryForward(prev.Figures), nil
	}
	return progress.OpeningFigures(), nil
}

func (s *progressService) UpdateLine(ctx context.Context, actor string, stateID string, lineID string, req *dto.UpdateLineItemRequest) (*dto.LineItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var item *progress.LineItem
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		var err error
		item, err = s.getLineOfState(ctx, state, lineID)
		if err != nil {
			return err
		}

		if err := item.Apply(*req.QuantityCurrent); err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}
		item.Touch(actor)
		return s.LineItemRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewLineItemResponse(item), nil
}

func (s *progressService) RemoveLine(ctx context.Context, actor string, stateID string, lineID string) error {
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		if _, err := s.getLineOfState(ctx, state, lineID); err != nil {
			return err
		}
		return s.LineItemRepo.Delete(ctx, lineID)
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("removed line item",
		"state_id", stateID,
		"line_item_id", lineID,
		"actor", actor,
	)
	return nil
}

func (s *progressService) getLineOfState(ctx context.Context, state *progress.State, lineID string) (*progress.LineItem, error) {
	item, err := s.LineItemRepo.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if item.StateID != state.ID {
		return nil, ierr.NewErrorf("line item %s does not belong to state %s", lineID, state.ID).
			WithHint("The line item belongs to another progress state").
			WithReportableDetails(map[string]any{
				"line_item_id": lineID,
				"state_id":     state.ID,
			}).
			Mark(ierr.ErrReferential)
	}
	return item, nil
}

func (s *progressService) AddChangeOrder(ctx context.Context, actor string, stateID string, req *dto.AddChangeOrderRequest) (*dto.ChangeOrderItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var item *progress.ChangeOrderItem
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		existing, err := s.ChangeOrderRepo.ListByState(ctx, state.ID)
		if err != nil {
			return err
		}
		position := 1
		if len(existing) > 0 {
			position = lo.MaxBy(existing, func(a, b *progress.ChangeOrderItem) bool {
				return a.Position > b.Position
			}).Position + 1
		}

		item = progress.NewChangeOrderItem(state.ID, req.Details(), position, types.GetDefaultBaseModel(ctx, actor))
		if err := item.Apply(req.QuantityCurrent); err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}
		return s.ChangeOrderRepo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("added change order item",
		"state_id", stateID,
		"change_order_item_id", item.ID,
		"actor", actor,
	)
	return dto.NewChangeOrderItemResponse(item), nil
}

func (s *progressService) UpdateChangeOrder(ctx context.Context, actor string, stateID string, itemID string, req *dto.UpdateChangeOrderRequest) (*dto.ChangeOrderItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var item *progress.ChangeOrderItem
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		var err error
		item, err = s.getChangeOrderOfState(ctx, state, itemID)
		if err != nil {
			return err
		}

		details := req.Apply(item.Details())
		if err := details.Validate(); err != nil {
			return err
		}
		item.SetDetails(details)

		if err := item.Apply(lo.FromPtrOr(req.QuantityCurrent, item.QuantityCurrent)); err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}
		item.Touch(actor)
		return s.ChangeOrderRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewChangeOrderItemResponse(item), nil
}

func (s *progressService) RemoveChangeOrder(ctx context.Context, actor string, stateID string, itemID string) error {
	_, err := s.withDraftState(ctx, actor, stateID, func(ctx context.Context, state *progress.State) error {
		if _, err := s.getChangeOrderOfState(ctx, state, itemID); err != nil {
			return err
		}
		return s.ChangeOrderRepo.Delete(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("removed change order item",
		"state_id", stateID,
		"change_order_item_id", itemID,
		"actor", actor,
	)
	return nil
}

func (s *progressService) getChangeOrderOfState(ctx context.Context, state *progress.State, itemID string) (*progress.ChangeOrderItem, error) {
	item, err := s.ChangeOrderRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.StateID != state.ID {
		return nil, ierr.NewErrorf("change order item %s does not belong to state %s", itemID, state.ID).
			WithHint("The change order belongs to another progress state").
			WithReportableDetails(map[string]any{
				"change_order_item_id": itemID,
				"state_id":             state.ID,
			}).
			Mark(ierr.ErrReferential)
	}
	return item, nil
}

func (s *progressService) FinalizeState(ctx context.Context, actor string, stateID string) (*dto.FinalizeProgressStateResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var finalized, next *progress.State
	var nextLines []*progress.LineItem
	var nextChangeOrders []*progress.ChangeOrderItem

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		state, err := s.ProgressStateRepo.GetForUpdate(ctx, stateID)
		if err != nil {
			return err
		}
		if state.IsFinalized {
			return ierr.NewErrorf("progress state %s is already finalized", state.ID).
				WithHintf("Progress state #%d is already finalized", state.SequenceNumber).
				WithReportableDetails(map[string]any{
					"state_id":     state.ID,
					"finalized_at": state.FinalizedAt,
				}).
				Mark(ierr.ErrAlreadyFinalized)
		}

		if existing, err := s.ProgressStateRepo.GetNext(ctx, state); err == nil {
			return ierr.NewErrorf("progress state %s already has a successor", state.ID).
				WithHintf("Progress state #%d is already followed by state #%d", state.SequenceNumber, existing.SequenceNumber).
				WithReportableDetails(map[string]any{
					"successor_id": existing.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		} else if !ierr.IsNotFound(err) {
			return err
		}

		lines, err := s.LineItemRepo.ListByState(ctx, state.ID)
		if err != nil {
			return err
		}
		changeOrders, err := s.ChangeOrderRepo.ListByState(ctx, state.ID)
		if err != nil {
			return err
		}

		now := s.now()
		expected := state.Version
		state.IsFinalized = true
		state.FinalizedAt = lo.ToPtr(now)
		state.Version = expected + 1
		state.Touch(actor)
		if err := s.ProgressStateRepo.Update(ctx, state, expected); err != nil {
			return err
		}

		next = state.NewSuccessor(actor, now.Truncate(24*time.Hour))
		if err := s.ProgressStateRepo.Create(ctx, next); err != nil {
			return err
		}

		base := types.GetDefaultBaseModel(ctx, actor)
		base.TenantID = next.TenantID
		nextLines = lo.Map(lines, func(i *progress.LineItem, _ int) *progress.LineItem {
			return i.CarryForward(next.ID, base)
		})
		if err := validateItems(nextLines); err != nil {
			return err
		}
		if err := s.LineItemRepo.CreateMany(ctx, nextLines); err != nil {
			return err
		}

		nextChangeOrders = lo.Map(changeOrders, func(i *progress.ChangeOrderItem, _ int) *progress.ChangeOrderItem {
			return i.CarryForward(next.ID, base)
		})
		if err := validateItems(nextChangeOrders); err != nil {
			return err
		}
		if err := s.ChangeOrderRepo.CreateMany(ctx, nextChangeOrders); err != nil {
			return err
		}

		state.LineItems = lines
		state.ChangeOrderItems = changeOrders
		finalized = state
		return nil
	})
	if err != nil {
		if ierr.IsBusinessRule(err) {
			return nil, err
		}
		s.Logger.Errorw("failed to finalize progress state, rolled back",
			"state_id", stateID,
			"actor", actor,
			"error", err,
		)
		s.Sentry.CaptureException(ctx, err)
		return nil, ierr.WithError(err).
			WithHint("The progress state could not be finalized, nothing was changed. Please retry").
			WithReportableDetails(map[string]any{
				"state_id": stateID,
			}).
			Mark(ierr.ErrTransient)
	}

	s.Logger.Infow("finalized progress state",
		"state_id", finalized.ID,
		"scope_id", finalized.ScopeID,
		"sequence_number", finalized.SequenceNumber,
		"next_state_id", next.ID,
		"carried_lines", len(nextLines),
		"carried_change_orders", len(nextChangeOrders),
		"actor", actor,
	)

	s.invalidate(ctx, finalized.ID, next.ID)

	return &dto.FinalizeProgressStateResponse{
		Finalized: dto.NewProgressStateResponse(finalized, finalized.LineItems, finalized.ChangeOrderItems),
		Next:      dto.NewProgressStateResponse(next, nextLines, nextChangeOrders),
	}, nil
}

func (s *progressService) ReopenState(ctx context.Context, actor string, stateID string) (*dto.ProgressStateResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var reopened *progress.State
	var discarded *progress.State

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		state, err := s.ProgressStateRepo.GetForUpdate(ctx, stateID)
		if err != nil {
			return err
		}
		if !state.IsFinalized {
			return ierr.NewErrorf("progress state %s is not finalized", state.ID).
				WithHintf("Progress state #%d is a draft and cannot be reopened", state.SequenceNumber).
				WithReportableDetails(map[string]any{
					"state_id": state.ID,
				}).
				Mark(ierr.ErrNotFinalized)
		}

		next, err := s.ProgressStateRepo.GetNext(ctx, state)
		switch {
		case err == nil:
			// lock the successor so no mutation slips in between the check and the delete
			next, err = s.ProgressStateRepo.GetForUpdate(ctx, next.ID)
			if err != nil {
				return err
			}
			if !next.IsUntouched() {
				return ierr.NewErrorf("successor %s of progress state %s was modified", next.ID, state.ID).
					WithHintf("Progress state #%d cannot be reopened because state #%d has already been edited", state.SequenceNumber, next.SequenceNumber).
					WithReportableDetails(map[string]any{
						"state_id":          state.ID,
						"successor_id":      next.ID,
						"successor_version": next.Version,
					}).
					Mark(ierr.ErrInvalidOperation)
			}
			if err := s.deleteStateWithItems(ctx, next.ID); err != nil {
				return err
			}
			discarded = next
		case !ierr.IsNotFound(err):
			return err
		}

		expected := state.Version
		state.IsFinalized = false
		state.FinalizedAt = nil
		state.Version = expected + 1
		state.Touch(actor)
		if err := s.ProgressStateRepo.Update(ctx, state, expected); err != nil {
			return err
		}

		reopened = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := []string{reopened.ID}
	discardedID := ""
	if discarded != nil {
		discardedID = discarded.ID
		ids = append(ids, discarded.ID)
	}
	s.Logger.Infow("reopened progress state",
		"state_id", reopened.ID,
		"scope_id", reopened.ScopeID,
		"discarded_successor", discardedID,
		"actor", actor,
	)
	s.invalidate(ctx, ids...)

	return s.stateResponse(ctx, reopened)
}

// stateResponse loads the items of state and builds its full view
func (s *progressService) stateResponse(ctx context.Context, state *progress.State) (*dto.ProgressStateResponse, error) {
	return loadStateResponse(ctx, s.ServiceParams, state)
}

func loadStateResponse(ctx context.Context, params ServiceParams, state *progress.State) (*dto.ProgressStateResponse, error) {
	lines, err := params.LineItemRepo.ListByState(ctx, state.ID)
	if err != nil {
		return nil, err
	}
	changeOrders, err := params.ChangeOrderRepo.ListByState(ctx, state.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewProgressStateResponse(state, lines, changeOrders), nil
}
