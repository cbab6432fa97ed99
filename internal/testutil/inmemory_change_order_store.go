package testutil

import (
	"context"
	"fmt"

	"github.com/chantier/avancement/internal/domain/progress"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/samber/lo"
)

// InMemoryChangeOrderStore implements progress.ChangeOrderRepository
type InMemoryChangeOrderStore struct {
	*InMemoryStore[*progress.ChangeOrderItem]
}

var _ progress.ChangeOrderRepository = (*InMemoryChangeOrderStore)(nil)

func NewInMemoryChangeOrderStore() *InMemoryChangeOrderStore {
	return &InMemoryChangeOrderStore{
		InMemoryStore: NewInMemoryStore[*progress.ChangeOrderItem](),
	}
}

func copyChangeOrder(i *progress.ChangeOrderItem) *progress.ChangeOrderItem {
	c := *i
	return &c
}

func changeOrderSortFn(i, j *progress.ChangeOrderItem) bool {
	if i.Position != j.Position {
		return i.Position < j.Position
	}
	return i.CreatedAt.Before(j.CreatedAt)
}

func (s *InMemoryChangeOrderStore) Create(ctx context.Context, item *progress.ChangeOrderItem) error {
	if item == nil {
		return fmt.Errorf("change order item cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, item.ID, copyChangeOrder(item))
}

func (s *InMemoryChangeOrderStore) CreateMany(ctx context.Context, items []*progress.ChangeOrderItem) error {
	for _, item := range items {
		if err := s.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryChangeOrderStore) Get(ctx context.Context, id string) (*progress.ChangeOrderItem, error) {
	item, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Change order item %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyChangeOrder(item), nil
}

func (s *InMemoryChangeOrderStore) Update(ctx context.Context, item *progress.ChangeOrderItem) error {
	return s.InMemoryStore.Update(ctx, item.ID, copyChangeOrder(item))
}

func (s *InMemoryChangeOrderStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryChangeOrderStore) ListByState(ctx context.Context, stateID string) ([]*progress.ChangeOrderItem, error) {
	items, err := s.InMemoryStore.List(ctx, stateID, func(ctx context.Context, i *progress.ChangeOrderItem, _ interface{}) bool {
		return i.StateID == stateID && CheckTenantFilter(ctx, i.TenantID)
	}, changeOrderSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(i *progress.ChangeOrderItem, _ int) *progress.ChangeOrderItem {
		return copyChangeOrder(i)
	}), nil
}

func (s *InMemoryChangeOrderStore) DeleteByState(ctx context.Context, stateID string) error {
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
