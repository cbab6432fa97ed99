package service

import (
	"context"
	"strings"

	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
)

// requireActor rejects mutations that do not name who performs them
func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return ierr.NewError("actor is required").
			WithHint("The acting user must be provided").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// validateItems checks every item before it is written
func validateItems[T interface{ Validate() error }](items []T) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// lockDraftState row-locks the state for the current transaction and fails
// with ErrLocked when it is finalized. It is the only place the lock rule of
// progress states is checked; ctx must carry a transaction.
func (s *progressService) lockDraftState(ctx context.Context, stateID string) (*progress.State, error) {
	state, err := s.ProgressStateRepo.GetForUpdate(ctx, stateID)
	if err != nil {
		return nil, err
	}

	if state.IsFinalized {
		return nil, ierr.NewErrorf("progress state %s is finalized", state.ID).
			WithHintf("Progress state #%d is finalized and can no longer be modified, reopen it first", state.SequenceNumber).
			WithReportableDetails(map[string]any{
				"state_id":        state.ID,
				"sequence_number": state.SequenceNumber,
				"status":          state.ProgressStatus(),
			}).
			Mark(ierr.ErrLocked)
	}
	return state, nil
}

// withDraftState runs fn in a transaction against the row-locked Draft state,
// then records the mutation on the state by bumping its version and setting
// updated_by to actor. Every mutation of a state's header or items goes
// through here.
func (s *progressService) withDraftState(
	ctx context.Context,
	actor string,
	stateID string,
	fn func(ctx context.Context, state *progress.State) error,
) (*progress.State, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var result *progress.State
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		state, err := s.lockDraftState(ctx, stateID)
		if err != nil {
			return err
		}

		expected := state.Version
		if err := fn(ctx, state); err != nil {
			return err
		}

		state.Version = expected + 1
		state.Touch(actor)
		if err := s.ProgressStateRepo.Update(ctx, state, expected); err != nil {
			return err
		}

		result = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, result.ID)
	return result, nil
}

// invalidate drops the cached views of the given states
func (s *progressService) invalidate(ctx context.Context, stateIDs ...string) {
	if s.Cache == nil {
		return
	}
	for _, id := range stateIDs {
		s.Cache.Delete(ctx, stateCacheKey(ctx, id))
	}
}
