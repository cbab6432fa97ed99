package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/sentry"
	"github.com/chantier/avancement/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// retryAfterSeconds is advertised to clients on transient failures
const retryAfterSeconds = 1

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Code    string         `json:"code"`
}

// ErrorHandler renders the last error attached to the gin context
func ErrorHandler(log *logger.Logger, sentryService *sentry.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= 500 {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", status,
				"error", err,
			)
			sentryService.CaptureException(c.Request.Context(), err)
		}

		if ierr.IsTransient(err) {
			c.Header(types.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
		}

		c.JSON(status, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Display: getDisplayMessage(err),
				Details: getSafeDetails(err),
				Code:    ierr.CodeFromErr(err),
			},
		})
	}
}

func getDisplayMessage(err error) string {
	// GetAllHints is a post-order traversal, the first non-empty hint is the innermost one
	hints := errors.GetAllHints(err)
	// a transient failure is explained by the layer that decided it can be retried
	if ierr.IsTransient(err) {
		hints = lo.Reverse(hints)
	}
	for _, hint := range hints {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	return details
}
