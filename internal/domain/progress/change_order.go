package progress

import (
	"strings"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/shopspring/decimal"
)

// ChangeOrderItem ("avenant") bills work added or modified outside the
// contracted scope. It has no contract line; its article, description, unit
// and unit price are entered by the user.
type ChangeOrderItem struct {
	ID      string `db:"id" json:"id"`
	StateID string `db:"state_id" json:"state_id"`
	// OriginID is the id of the item in the state where the change order was
	// first entered. Carried-forward copies keep it.
	OriginID    string          `db:"origin_id" json:"origin_id"`
	ArticleCode string          `db:"article_code" json:"article_code"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Position    int             `db:"position" json:"position"`
	Figures
	types.BaseModel
}

// ChangeOrderDetails are the user-entered fields of a change order.
type ChangeOrderDetails struct {
	ArticleCode string
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
}

func (d ChangeOrderDetails) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return ierr.NewError("description is required").
			WithHint("A change order needs a description").
			Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(d.Unit) == "" {
		return ierr.NewError("unit is required").
			WithHint("A change order needs a unit").
			Mark(ierr.ErrValidation)
	}
	if d.UnitPrice.IsNegative() {
		return ierr.NewError("unit price must be non negative").
			WithHint("Unit price cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return CheckScale("unit_price", d.UnitPrice)
}

func NewChangeOrderItem(stateID string, details ChangeOrderDetails, position int, base types.BaseModel) *ChangeOrderItem {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_CHANGE_ITEM)
	return &ChangeOrderItem{
		ID:          id,
		StateID:     stateID,
		OriginID:    id,
		ArticleCode: strings.TrimSpace(details.ArticleCode),
		Description: strings.TrimSpace(details.Description),
		Unit:        strings.TrimSpace(details.Unit),
		UnitPrice:   details.UnitPrice,
		Position:    position,
		Figures:     OpeningFigures(),
		BaseModel:   base,
	}
}

// Apply records the quantity of the period and recomputes the totals.
func (i *ChangeOrderItem) Apply(currentQty decimal.Decimal) error {
	figures, err := ComputeLine(i.QuantityPrevious, currentQty, i.AmountPrevious, i.UnitPrice)
	if err != nil {
		return err
	}
	i.Figures = figures
	return nil
}

// SetDetails replaces the user-entered fields. Totals must be recomputed with
// Apply afterwards since the unit price may have changed.
func (i *ChangeOrderItem) SetDetails(details ChangeOrderDetails) {
	i.ArticleCode = strings.TrimSpace(details.ArticleCode)
	i.Description = strings.TrimSpace(details.Description)
	i.Unit = strings.TrimSpace(details.Unit)
	i.UnitPrice = details.UnitPrice
}

func (i *ChangeOrderItem) Details() ChangeOrderDetails {
	return ChangeOrderDetails{
		ArticleCode: i.ArticleCode,
		Description: i.Description,
		Unit:        i.Unit,
		UnitPrice:   i.UnitPrice,
	}
}

// CarryForward copies the change order into the successor state with the
// totals of this period as its previous baseline.
func (i *ChangeOrderItem) CarryForward(successorID string, base types.BaseModel) *ChangeOrderItem {
	next := *i
	next.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_CHANGE_ITEM)
	next.StateID = successorID
	next.Figures = CarryForward(i.Figures)
	next.BaseModel = base
	return &next
}

func (i *ChangeOrderItem) Validate() error {
	if i.StateID == "" {
		return ierr.NewError("state_id is required").
			WithHint("A change order must belong to a progress state").
			Mark(ierr.ErrValidation)
	}
	if err := i.Details().Validate(); err != nil {
		return err
	}
	return i.Figures.Check()
}
