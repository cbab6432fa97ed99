package postgres

import (
	"context"
	"testing"

	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	sentryService "github.com/chantier/avancement/internal/sentry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
}

func (c *countingClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func TestSentryClientDelegatesTransactions(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	inner := &countingClient{}
	client := NewSentryClient(inner, sentryService.NewSentryService(cfg, log), log)

	ran := false
	require.NoError(t, client.WithTx(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	err := client.WithTx(context.Background(), func(ctx context.Context) error {
		return ierr.NewError("conflict").Mark(ierr.ErrTransient)
	})
	assert.True(t, ierr.IsTransient(err))
	assert.Equal(t, 2, inner.calls)
}
