package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/postgres"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db     postgres.Pinger
	logger *logger.Logger
}

func NewHealthHandler(db postgres.Pinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// Health reports ok when the database answers within two seconds
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Errorw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
