package testutil

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/samber/lo"
)

// InMemoryProgressStateStore implements progress.StateRepository
type InMemoryProgressStateStore struct {
	*InMemoryStore[*progress.State]
}

var _ progress.StateRepository = (*InMemoryProgressStateStore)(nil)

// NewInMemoryProgressStateStore creates a new in-memory progress state store
func NewInMemoryProgressStateStore() *InMemoryProgressStateStore {
	return &InMemoryProgressStateStore{
		InMemoryStore: NewInMemoryStore[*progress.State](),
	}
}

// copyState detaches the stored row from the caller's value. Items are
// persisted by their own stores.
func copyState(s *progress.State) *progress.State {
	c := *s
	c.LineItems = nil
	c.ChangeOrderItems = nil
	if s.FinalizedAt != nil {
		c.FinalizedAt = lo.ToPtr(*s.FinalizedAt)
	}
	return &c
}

func progressStateFilterFn(ctx context.Context, s *progress.State, filter interface{}) bool {
	if s == nil {
		return false
	}

	if !CheckTenantFilter(ctx, s.TenantID) {
		return false
	}

	if s.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.ProgressStateFilter)
	if !ok || f == nil {
		return true
	}

	if f.ScopeID != "" && s.ScopeID != f.ScopeID {
		return false
	}

	if f.IsFinalized != nil && s.IsFinalized != *f.IsFinalized {
		return false
	}

	return true
}

func progressStateAscFn(i, j *progress.State) bool {
	return i.SequenceNumber < j.SequenceNumber
}

func progressStateDescFn(i, j *progress.State) bool {
	return i.SequenceNumber > j.SequenceNumber
}

func (s *InMemoryProgressStateStore) Create(ctx context.Context, state *progress.State) error {
	if state == nil {
		return fmt.Errorf("progress state cannot be nil")
	}

	if _, err := s.GetBySequence(ctx, state.ScopeID, state.SequenceNumber); err == nil {
		return ierr.NewErrorf("sequence %d already used in scope %s", state.SequenceNumber, state.ScopeID).
			WithHint("A progress state with the same sequence number already exists").
			WithReportableDetails(map[string]any{
				"constraint": "progress_states_scope_sequence_key",
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, state.ID, copyState(state))
}

func (s *InMemoryProgressStateStore) Get(ctx context.Context, id string) (*progress.State, error) {
	state, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Progress state %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	if !CheckTenantFilter(ctx, state.TenantID) {
		return nil, ierr.NewErrorf("progress state %s not found", id).
			WithHintf("Progress state %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyState(state), nil
}

// GetForUpdate relies on MockPostgresClient serializing transactions
func (s *InMemoryProgressStateStore) GetForUpdate(ctx context.Context, id string) (*progress.State, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryProgressStateStore) Update(ctx context.Context, state *progress.State, expectedVersion int) error {
	current, err := s.Get(ctx, state.ID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return ierr.NewErrorf("progress state %s was modified concurrently", state.ID).
			WithHint("The progress state was modified by someone else, reload it and retry").
			WithReportableDetails(map[string]any{
				"state_id":         state.ID,
				"expected_version": expectedVersion,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return s.InMemoryStore.Update(ctx, state.ID, copyState(state))
}

func (s *InMemoryProgressStateStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryProgressStateStore) List(ctx context.Context, filter *types.ProgressStateFilter) ([]*progress.State, error) {
	sortFn := progressStateAscFn
	if filter != nil && filter.GetOrder() == types.OrderDesc {
		sortFn = progressStateDescFn
	}

	var f interface{}
	if filter != nil {
		f = filter
	}
	states, err := s.InMemoryStore.List(ctx, f, progressStateFilterFn, sortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(states, func(st *progress.State, _ int) *progress.State {
		return copyState(st)
	}), nil
}

func (s *InMemoryProgressStateStore) Count(ctx context.Context, filter *types.ProgressStateFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, progressStateFilterFn)
}

func (s *InMemoryProgressStateStore) GetBySequence(ctx context.Context, scopeID string, sequence int) (*progress.State, error) {
	states, err := s.List(ctx, types.NewProgressStateFilter(scopeID))
	if err != nil {
		return nil, err
	}
	state, ok := lo.Find(states, func(st *progress.State) bool {
		return st.SequenceNumber == sequence
	})
	if !ok {
		return nil, ierr.NewErrorf("progress state %d of scope %s not found", sequence, scopeID).
			WithHintf("progress state %d of scope %s not found", sequence, scopeID).
			Mark(ierr.ErrNotFound)
	}
	return state, nil
}

func (s *InMemoryProgressStateStore) GetLatest(ctx context.Context, scopeID string) (*progress.State, error) {
	states, err := s.List(ctx, types.NewProgressStateFilter(scopeID))
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, ierr.NewErrorf("no progress state in scope %s", scopeID).
			WithHintf("progress state of scope %s not found", scopeID).
			Mark(ierr.ErrNotFound)
	}
	return states[len(states)-1], nil
}

func (s *InMemoryProgressStateStore) GetNext(ctx context.Context, state *progress.State) (*progress.State, error) {
	states, err := s.List(ctx, types.NewProgressStateFilter(state.ScopeID))
	if err != nil {
		return nil, err
	}
	next, ok := lo.Find(states, func(st *progress.State) bool {
		return st.SequenceNumber > state.SequenceNumber
	})
	if !ok {
		return nil, ierr.NewErrorf("no progress state follows %s", state.ID).
			WithHintf("progress state following %s not found", state.ID).
			Mark(ierr.ErrNotFound)
	}
	return next, nil
}
