package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	router := gin.New()
	router.Use(ErrorHandler(log, sentry.NewSentryService(config.GetDefaultConfig(), log)))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(err)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestErrorHandlerShowsInnermostHint(t *testing.T) {
	inner := ierr.NewError("no rows").
		WithHint("Progress state not found").
		Mark(ierr.ErrNotFound)
	err := ierr.WithError(inner).
		WithHint("Could not load the state").
		Mark(ierr.ErrNotFound)

	w, resp := serveError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, ierr.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Progress state not found", resp.Error.Display)
	assert.Empty(t, w.Header().Get(types.HeaderRetryAfter))
}

func TestErrorHandlerShowsRetryHintOnTransientFailure(t *testing.T) {
	inner := ierr.NewError("connection reset").
		WithHint("A database error occurred").
		Mark(ierr.ErrDatabase)
	err := ierr.WithError(inner).
		WithHint("Nothing was changed. Please retry").
		WithReportableDetails(map[string]any{"state_id": "pst_1"}).
		Mark(ierr.ErrTransient)

	w, resp := serveError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ierr.ErrCodeTransient, resp.Error.Code)
	assert.Equal(t, "Nothing was changed. Please retry", resp.Error.Display)
	assert.Equal(t, "pst_1", resp.Error.Details["state_id"])
	assert.Equal(t, "1", w.Header().Get(types.HeaderRetryAfter))
}
