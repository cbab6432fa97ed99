package testutil

import (
	"context"
	"sync"

	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/chantier/avancement/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTx struct {
	id string
}

// MockPostgresClient emulates transactions over in-memory stores. Top level
// transactions are serialized, which stands in for the row locks taken by
// the postgres repositories, and a failed transaction restores every
// registered store to its content at BEGIN.
type MockPostgresClient struct {
	mu     sync.Mutex
	logger *logger.Logger
	stores []Snapshotter
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger, stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
		stores: stores,
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if _, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); ok {
		return fn(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restores := make([]func(), 0, len(c.stores))
	for _, s := range c.stores {
		restores = append(restores, s.Snapshot())
	}

	tx := &mockTx{id: types.GenerateUUID()}
	txCtx := context.WithValue(ctx, types.CtxDBTransaction, tx)

	if err := fn(txCtx); err != nil {
		c.logger.Debugw("rolling back mock transaction", "tx_id", tx.id, "error", err)
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
