package v1

import (
	"net/http"

	"github.com/chantier/avancement/internal/api/dto"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/service"
	"github.com/chantier/avancement/internal/types"
	"github.com/gin-gonic/gin"
)

type ProgressStateHandler struct {
	progressService service.ProgressService
	reportService   service.ProgressReportService
	logger          *logger.Logger
}

func NewProgressStateHandler(
	progressService service.ProgressService,
	reportService service.ProgressReportService,
	logger *logger.Logger,
) *ProgressStateHandler {
	return &ProgressStateHandler{
		progressService: progressService,
		reportService:   reportService,
		logger:          logger,
	}
}

// requiredParam reads a path parameter and reports a validation error when it is empty
func requiredParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		c.Error(ierr.NewErrorf("%s is required", name).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return "", false
	}
	return value, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}

// actor is the authenticated user performing the request
func actor(c *gin.Context) string {
	return types.GetUserID(c.Request.Context())
}

// CreateProgressState opens the first progress state of a scope
func (h *ProgressStateHandler) CreateProgressState(c *gin.Context) {
	var req dto.CreateProgressStateRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.CreateState(c.Request.Context(), actor(c), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ProgressStateHandler) GetProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.reportService.GetState(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetNextProgressState returns the state following the given one, 404 when it is the latest
func (h *ProgressStateHandler) GetNextProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.reportService.GetNextState(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if resp == nil {
		c.Error(ierr.NewErrorf("progress state %s has no successor", id).
			WithHint("This is the latest progress state of the scope").
			WithReportableDetails(map[string]any{
				"state_id": id,
			}).
			Mark(ierr.ErrNotFound))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) ListScopeProgressStates(c *gin.Context) {
	scopeID, ok := requiredParam(c, "scope_id")
	if !ok {
		return
	}

	resp, err := h.reportService.ListStates(c.Request.Context(), scopeID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) GetScopeSummary(c *gin.Context) {
	scopeID, ok := requiredParam(c, "scope_id")
	if !ok {
		return
	}

	resp, err := h.reportService.GetScopeSummary(c.Request.Context(), scopeID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) UpdateProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProgressStateRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.UpdateState(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) DeleteProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	if err := h.progressService.DeleteState(c.Request.Context(), actor(c), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "progress state deleted successfully"})
}

// FinalizeProgressState locks the state and returns it with its freshly spawned successor
func (h *ProgressStateHandler) FinalizeProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.progressService.FinalizeState(c.Request.Context(), actor(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) ReopenProgressState(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.progressService.ReopenState(c.Request.Context(), actor(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) AddLineItem(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddLineItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.AddLine(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ProgressStateHandler) UpdateLineItem(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := requiredParam(c, "line_id")
	if !ok {
		return
	}

	var req dto.UpdateLineItemRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.UpdateLine(c.Request.Context(), actor(c), id, lineID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) RemoveLineItem(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := requiredParam(c, "line_id")
	if !ok {
		return
	}

	if err := h.progressService.RemoveLine(c.Request.Context(), actor(c), id, lineID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "line item removed successfully"})
}

func (h *ProgressStateHandler) AddChangeOrder(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddChangeOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.AddChangeOrder(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ProgressStateHandler) UpdateChangeOrder(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := requiredParam(c, "item_id")
	if !ok {
		return
	}

	var req dto.UpdateChangeOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.progressService.UpdateChangeOrder(c.Request.Context(), actor(c), id, itemID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProgressStateHandler) RemoveChangeOrder(c *gin.Context) {
	id, ok := requiredParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := requiredParam(c, "item_id")
	if !ok {
		return
	}

	if err := h.progressService.RemoveChangeOrder(c.Request.Context(), actor(c), id, itemID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "change order removed successfully"})
}
