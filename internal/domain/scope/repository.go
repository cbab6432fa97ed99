package scope

import (
	"context"
)

// Repository gives read access to the contract and order data that seeds
// progress billing.
type Repository interface {
	// Get retrieves a scope by ID
	Get(ctx context.Context, id string) (*Scope, error)

	// ListLines returns the billable lines of a scope ordered by position
	ListLines(ctx context.Context, scopeID string) ([]*Line, error)

	// GetLine retrieves a single billable line by ID
	GetLine(ctx context.Context, id string) (*Line, error)
}
