package postgres

import (
	"context"

	"github.com/chantier/avancement/internal/logger"
	sentryService "github.com/chantier/avancement/internal/sentry"
)

// SentryClient wraps a client so that every transaction is recorded as a
// database span of the request
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

var _ IClient = (*SentryClient)(nil)

func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// nested calls run inside the span of the outer transaction
	if InTx(ctx) {
		return c.client.WithTx(ctx, fn)
	}

	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	if span != nil {
		defer span.Finish()
	}

	return c.client.WithTx(spanCtx, fn)
}
