package dto

import (
	"strings"
	"time"

	"github.com/chantier/avancement/internal/domain/progress"
	"github.com/chantier/avancement/internal/domain/scope"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/chantier/avancement/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateProgressStateRequest opens the first billing period of a scope. Later
// periods are spawned by finalizing their predecessor.
type CreateProgressStateRequest struct {
	ScopeID      string    `json:"scope_id" validate:"required"`
	SnapshotDate time.Time `json:"snapshot_date" validate:"required"`
	Comments     string    `json:"comments" validate:"omitempty,max=4000"`
	// SeedLines creates one zeroed line item per scope line, defaults to true
	SeedLines *bool `json:"seed_lines,omitempty"`
}

func (r *CreateProgressStateRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateProgressStateRequest) ShouldSeedLines() bool {
	return lo.FromPtrOr(r.SeedLines, true)
}

type UpdateProgressStateRequest struct {
	SnapshotDate *time.Time `json:"snapshot_date,omitempty"`
	Comments     *string    `json:"comments,omitempty" validate:"omitempty,max=4000"`
}

func (r *UpdateProgressStateRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SnapshotDate != nil && r.SnapshotDate.IsZero() {
		return ierr.NewError("snapshot_date cannot be empty").
			WithHint("Snapshot date cannot be empty").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type AddLineItemRequest struct {
	ScopeLineID     string          `json:"scope_line_id" validate:"required"`
	QuantityCurrent decimal.Decimal `json:"quantity_current"`
}

func (r *AddLineItemRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return validateQuantity(r.QuantityCurrent)
}

type UpdateLineItemRequest struct {
	QuantityCurrent *decimal.Decimal `json:"quantity_current" validate:"required"`
}

func (r *UpdateLineItemRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.QuantityCurrent == nil {
		return missingField("quantity_current")
	}
	return validateQuantity(*r.QuantityCurrent)
}

type AddChangeOrderRequest struct {
	ArticleCode     string           `json:"article_code" validate:"omitempty,max=100"`
	Description     string           `json:"description" validate:"required"`
	Unit            string           `json:"unit" validate:"required,max=20"`
	UnitPrice       *decimal.Decimal `json:"unit_price" validate:"required"`
	QuantityCurrent decimal.Decimal  `json:"quantity_current"`
}

func (r *AddChangeOrderRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.UnitPrice == nil {
		return missingField("unit_price")
	}
	if err := r.Details().Validate(); err != nil {
		return err
	}
	return validateQuantity(r.QuantityCurrent)
}

// Details must only be called on a validated request
func (r *AddChangeOrderRequest) Details() progress.ChangeOrderDetails {
	return progress.ChangeOrderDetails{
		ArticleCode: r.ArticleCode,
		Description: r.Description,
		Unit:        r.Unit,
		UnitPrice:   lo.FromPtr(r.UnitPrice),
	}
}

// UpdateChangeOrderRequest changes the fields that are set and keeps the others
type UpdateChangeOrderRequest struct {
	ArticleCode     *string          `json:"article_code,omitempty" validate:"omitempty,max=100"`
	Description     *string          `json:"description,omitempty"`
	Unit            *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	QuantityCurrent *decimal.Decimal `json:"quantity_current,omitempty"`
}

func (r *UpdateChangeOrderRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.QuantityCurrent != nil {
		return validateQuantity(*r.QuantityCurrent)
	}
	return nil
}

// Apply merges the request into the current details of the item
func (r *UpdateChangeOrderRequest) Apply(current progress.ChangeOrderDetails) progress.ChangeOrderDetails {
	if r.ArticleCode != nil {
		current.ArticleCode = strings.TrimSpace(*r.ArticleCode)
	}
	if r.Description != nil {
		current.Description = *r.Description
	}
	if r.Unit != nil {
		current.Unit = *r.Unit
	}
	if r.UnitPrice != nil {
		current.UnitPrice = *r.UnitPrice
	}
	return current
}

func validateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return ierr.NewError("quantity_current must be non negative").
			WithHint("Current quantity cannot be negative").
			WithReportableDetails(map[string]any{
				"quantity_current": q.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return progress.CheckScale("quantity_current", q)
}

func missingField(field string) error {
	return ierr.NewErrorf("%s is required", field).
		WithHintf("%s is required", field).
		WithReportableDetails(map[string]any{
			"field": field,
		}).
		Mark(ierr.ErrValidation)
}

type LineItemResponse struct {
	*progress.LineItem
	ContractAmount decimal.Decimal `json:"contract_amount"`
	// CompletionRatio is quantity_total / contract_quantity, absent when the
	// contract quantity is zero
	CompletionRatio *decimal.Decimal `json:"completion_ratio,omitempty"`
}

func NewLineItemResponse(item *progress.LineItem) *LineItemResponse {
	return &LineItemResponse{
		LineItem:        item,
		ContractAmount:  item.ContractQuantity.Mul(item.UnitPrice),
		CompletionRatio: item.CompletionRatio(),
	}
}

type ChangeOrderItemResponse struct {
	*progress.ChangeOrderItem
}

func NewChangeOrderItemResponse(item *progress.ChangeOrderItem) *ChangeOrderItemResponse {
	return &ChangeOrderItemResponse{ChangeOrderItem: item}
}

type ProgressStateResponse struct {
	*progress.State
	ProgressStatus    types.ProgressStateStatus  `json:"progress_status"`
	LineItems         []*LineItemResponse        `json:"line_items"`
	ChangeOrderItems  []*ChangeOrderItemResponse `json:"change_order_items"`
	LineTotals        progress.Totals            `json:"line_totals"`
	ChangeOrderTotals progress.Totals            `json:"change_order_totals"`
	GrandTotal        progress.Totals            `json:"grand_total"`
}

// NewProgressStateResponse builds the full view of a state with its totals
func NewProgressStateResponse(state *progress.State, lines []*progress.LineItem, changeOrders []*progress.ChangeOrderItem) *ProgressStateResponse {
	lineTotals := progress.SumLineItems(lines)
	changeOrderTotals := progress.SumChangeOrders(changeOrders)

	return &ProgressStateResponse{
		State:          state,
		ProgressStatus: state.ProgressStatus(),
		LineItems:      lo.Map(lines, func(i *progress.LineItem, _ int) *LineItemResponse { return NewLineItemResponse(i) }),
		ChangeOrderItems: lo.Map(changeOrders, func(i *progress.ChangeOrderItem, _ int) *ChangeOrderItemResponse {
			return NewChangeOrderItemResponse(i)
		}),
		LineTotals:        lineTotals,
		ChangeOrderTotals: changeOrderTotals,
		GrandTotal:        lineTotals.Plus(changeOrderTotals),
	}
}

// ListProgressStatesResponse represents the response for listing the states of a scope
type ListProgressStatesResponse = types.ListResponse[*ProgressStateResponse]

// FinalizeProgressStateResponse holds the locked state and the successor
// spawned with carried-forward figures
type FinalizeProgressStateResponse struct {
	Finalized *ProgressStateResponse `json:"finalized"`
	Next      *ProgressStateResponse `json:"next"`
}

type ScopeSummaryResponse struct {
	Scope          *scope.Scope    `json:"scope"`
	StateCount     int             `json:"state_count"`
	LatestStateID  *string         `json:"latest_state_id,omitempty"`
	LatestSequence int             `json:"latest_sequence"`
	ContractTotal  decimal.Decimal `json:"contract_total"`
	// BilledTotal is the cumulative grand total of the latest state
	BilledTotal     decimal.Decimal  `json:"billed_total"`
	CompletionRatio *decimal.Decimal `json:"completion_ratio,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
