package testutil

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/samber/lo"
)

// InMemoryProgressLineStore implements progress.LineItemRepository
type InMemoryProgressLineStore struct {
	*InMemoryStore[*progress.LineItem]
}

var _ progress.LineItemRepository = (*InMemoryProgressLineStore)(nil)

func NewInMemoryProgressLineStore() *InMemoryProgressLineStore {
	return &InMemoryProgressLineStore{
		InMemoryStore: NewInMemoryStore[*progress.LineItem](),
	}
}

func copyLineItem(i *progress.LineItem) *progress.LineItem {
	c := *i
	return &c
}

func lineItemSortFn(i, j *progress.LineItem) bool {
	if i.Position != j.Position {
		return i.Position < j.Position
	}
	return i.CreatedAt.Before(j.CreatedAt)
}

func (s *InMemoryProgressLineStore) Create(ctx context.Context, item *progress.LineItem) error {
	if item == nil {
		return fmt.Errorf("line item cannot be nil")
	}

	existing, err := s.ListByState(ctx, item.StateID)
	if err != nil {
		return err
	}
	if lo.ContainsBy(existing, func(e *progress.LineItem) bool { return e.ScopeLineID == item.ScopeLineID }) {
		return ierr.NewErrorf("scope line %s already billed in state %s", item.ScopeLineID, item.StateID).
			WithHint("A record with the same identity already exists").
			WithReportableDetails(map[string]any{
				"constraint": "progress_line_items_state_line_key",
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, item.ID, copyLineItem(item))
}

func (s *InMemoryProgressLineStore) CreateMany(ctx context.Context, items []*progress.LineItem) error {
	for _, item := range items {
		if err := s.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryProgressLineStore) Get(ctx context.Context, id string) (*progress.LineItem, error) {
	item, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Line item %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyLineItem(item), nil
}

func (s *InMemoryProgressLineStore) Update(ctx context.Context, item *progress.LineItem) error {
	return s.InMemoryStore.Update(ctx, item.ID, copyLineItem(item))
}

func (s *InMemoryProgressLineStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryProgressLineStore) ListByState(ctx context.Context, stateID string) ([]*progress.LineItem, error) {
	items, err := s.InMemoryStore.List(ctx, stateID, func(ctx context.Context, i *progress.LineItem, _ interface{}) bool {
		return i.StateID == stateID && CheckTenantFilter(ctx, i.TenantID)
	}, lineItemSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(i *progress.LineItem, _ int) *progress.LineItem {
		return copyLineItem(i)
	}), nil
}

func (s *InMemoryProgressLineStore) DeleteByState(ctx context.Context, stateID string) error {
	items, err := s.ListByState(ctx, stateID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.InMemoryStore.Delete(ctx, item.ID); err != nil {
			return err
		}
	}
	return nil
}
