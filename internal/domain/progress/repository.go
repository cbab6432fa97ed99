package progress

import (
	"context"

	"github.com/chantier/avancement/internal/types"
)

// StateRepository defines the persistence operations of progress states
type StateRepository interface {
	// Create persists a new state. A state with the same scope and sequence
	// number must not exist.
	Create(ctx context.Context, state *State) error

	// Get retrieves a state by ID without its items
	Get(ctx context.Context, id string) (*State, error)

	// GetForUpdate retrieves a state and locks it until the surrounding
	// transaction ends
	GetForUpdate(ctx context.Context, id string) (*State, error)

	// Update persists the state if its stored version still equals
	// expectedVersion, otherwise it fails with a version conflict
	Update(ctx context.Context, state *State, expectedVersion int) error

	// Delete removes the state row. Callers delete the items first within the
	// same transaction; the postgres schema also cascades.
	Delete(ctx context.Context, id string) error

	// List retrieves states based on filter criteria
	List(ctx context.Context, filter *types.ProgressStateFilter) ([]*State, error)

	// Count returns the number of states matching the filter
	Count(ctx context.Context, filter *types.ProgressStateFilter) (int, error)

	// GetBySequence retrieves the state of a scope with the given sequence number
	GetBySequence(ctx context.Context, scopeID string, sequence int) (*State, error)

	// GetLatest retrieves the state with the highest sequence number of a scope
	GetLatest(ctx context.Context, scopeID string) (*State, error)

	// GetNext retrieves the state of the same scope with the smallest sequence
	// number greater than the given state's, or a not found error
	GetNext(ctx context.Context, state *State) (*State, error)
}

// LineItemRepository defines the persistence operations of line items
type LineItemRepository interface {
	Create(ctx context.Context, item *LineItem) error
	CreateMany(ctx context.Context, items []*LineItem) error
	Get(ctx context.Context, id string) (*LineItem, error)
	Update(ctx context.Context, item *LineItem) error
	Delete(ctx context.Context, id string) error
	ListByState(ctx context.Context, stateID string) ([]*LineItem, error)
	DeleteByState(ctx context.Context, stateID string) error
}

// ChangeOrderRepository defines the persistence operations of change order items
type ChangeOrderRepository interface {
	Create(ctx context.Context, item *ChangeOrderItem) error
	CreateMany(ctx context.Context, items []*ChangeOrderItem) error
	Get(ctx context.Context, id string) (*ChangeOrderItem, error)
	Update(ctx context.Context, item *ChangeOrderItem) error
	Delete(ctx context.Context, id string) error
	ListByState(ctx context.Context, stateID string) ([]*ChangeOrderItem, error)
	DeleteByState(ctx context.Context, stateID string) error
}
