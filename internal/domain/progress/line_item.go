package progress

import (
	"github.com/chantier/avancement/internal/domain/scope"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem bills one contracted line of the scope within a progress state.
// The contractual fields are copied from the scope line at creation and are
// read-only afterwards.
type LineItem struct {
	ID               string          `db:"id" json:"id"`
	StateID          string          `db:"state_id" json:"state_id"`
	ScopeLineID      string          `db:"scope_line_id" json:"scope_line_id"`
	ArticleCode      string          `db:"article_code" json:"article_code"`
	Description      string          `db:"description" json:"description"`
	Unit             string          `db:"unit" json:"unit"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unit_price"`
	ContractQuantity decimal.Decimal `db:"contract_quantity" json:"contract_quantity"`
	Position         int             `db:"position" json:"position"`
	Figures
	types.BaseModel
}

// NewLineItem creates the line of stateID billing the scope line, starting
// from the previous figures carried from the predecessor state.
func NewLineItem(stateID string, line *scope.Line, previous Figures, base types.BaseModel) *LineItem {
	return &LineItem{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_LINE_ITEM),
		StateID:          stateID,
		ScopeLineID:      line.ID,
		ArticleCode:      line.ArticleCode,
		Description:      line.Description,
		Unit:             line.Unit,
		UnitPrice:        line.UnitPrice,
		ContractQuantity: line.ContractQuantity,
		Position:         line.Position,
		Figures:          previous,
		BaseModel:        base,
	}
}

// Apply records the quantity of the period and recomputes the totals.
func (i *LineItem) Apply(currentQty decimal.Decimal) error {
	figures, err := ComputeLine(i.QuantityPrevious, currentQty, i.AmountPrevious, i.UnitPrice)
	if err != nil {
		return err
	}
	i.Figures = figures
	return nil
}

// CarryForward copies the line into the successor state with the totals of
// this period as its previous baseline.
func (i *LineItem) CarryForward(successorID string, base types.BaseModel) *LineItem {
	next := *i
	next.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_LINE_ITEM)
	next.StateID = successorID
	next.Figures = CarryForward(i.Figures)
	next.BaseModel = base
	return &next
}

// CompletionRatio is the share of the contractual quantity billed so far, or
// nil when the line has no contractual quantity.
func (i *LineItem) CompletionRatio() *decimal.Decimal {
	if i.ContractQuantity.IsZero() {
		return nil
	}
	ratio := i.QuantityTotal.DivRound(i.ContractQuantity, 4)
	return &ratio
}

func (i *LineItem) Validate() error {
	if i.StateID == "" {
		return ierr.NewError("state_id is required").
			WithHint("A line item must belong to a progress state").
			Mark(ierr.ErrValidation)
	}
	if i.ScopeLineID == "" {
		return ierr.NewError("scope_line_id is required").
			WithHint("A line item must reference a contract line").
			Mark(ierr.ErrValidation)
	}
	if i.UnitPrice.IsNegative() {
		return ierr.NewError("unit price must be non negative").
			WithHint("Unit price cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return i.Figures.Check()
}
