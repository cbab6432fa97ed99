package sentry

import (
	"context"
	"testing"

	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingHub returns a hub whose events are appended to events instead of
// being sent
func capturingHub(t *testing.T, events *[]*sentry.Event) *sentry.Hub {
	client, err := sentry.NewClient(sentry.ClientOptions{
		SampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			*events = append(*events, event)
			return nil
		},
	})
	require.NoError(t, err)
	return sentry.NewHub(client, sentry.NewScope())
}

func newService(enabled bool) *Service {
	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = enabled
	return NewSentryService(cfg, logger.NewNopLogger())
}

func TestCaptureExceptionTagsErrorCode(t *testing.T) {
	var events []*sentry.Event
	ctx := sentry.SetHubOnContext(context.Background(), capturingHub(t, &events))

	err := ierr.NewError("commit failed").Mark(ierr.ErrTransient)
	newService(true).CaptureException(ctx, err)

	require.Len(t, events, 1)
	assert.Equal(t, ierr.ErrCodeTransient, events[0].Tags["error_code"])
	assert.NotEmpty(t, events[0].Exception)
}

func TestDisabledServiceCapturesNothing(t *testing.T) {
	var events []*sentry.Event
	ctx := sentry.SetHubOnContext(context.Background(), capturingHub(t, &events))

	newService(false).CaptureException(ctx, ierr.NewError("boom").Mark(ierr.ErrSystem))
	newService(false).AddBreadcrumb(ctx, "progress", "finalize", nil)

	var nilService *Service
	nilService.CaptureException(ctx, ierr.NewError("boom").Mark(ierr.ErrSystem))

	assert.Empty(t, events)

	span, spanCtx := newService(false).StartDBSpan(ctx, "postgres.transaction", nil)
	assert.Nil(t, span)
	assert.Equal(t, ctx, spanCtx)
}
