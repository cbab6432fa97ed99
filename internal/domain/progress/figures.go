package progress

import (
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/shopspring/decimal"
)

// Figures holds the previous/current/total columns shared by line items and
// change order items. Totals are always derived by ComputeLine.
type Figures struct {
	QuantityPrevious decimal.Decimal `db:"quantity_previous" json:"quantity_previous"`
	QuantityCurrent  decimal.Decimal `db:"quantity_current" json:"quantity_current"`
	QuantityTotal    decimal.Decimal `db:"quantity_total" json:"quantity_total"`
	AmountPrevious   decimal.Decimal `db:"amount_previous" json:"amount_previous"`
	AmountCurrent    decimal.Decimal `db:"amount_current" json:"amount_current"`
	AmountTotal      decimal.Decimal `db:"amount_total" json:"amount_total"`
}

// Check verifies the carry-forward invariant of a persisted row:
// total = previous + current for both quantities and amounts.
func (f Figures) Check() error {
	if !f.QuantityTotal.Equal(f.QuantityPrevious.Add(f.QuantityCurrent)) {
		return ierr.NewError("quantity total does not match previous + current").
			WithHint("Quantity total is inconsistent").
			WithReportableDetails(map[string]any{
				"quantity_previous": f.QuantityPrevious.String(),
				"quantity_current":  f.QuantityCurrent.String(),
				"quantity_total":    f.QuantityTotal.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if !f.AmountTotal.Equal(f.AmountPrevious.Add(f.AmountCurrent)) {
		return ierr.NewError("amount total does not match previous + current").
			WithHint("Amount total is inconsistent").
			WithReportableDetails(map[string]any{
				"amount_previous": f.AmountPrevious.String(),
				"amount_current":  f.AmountCurrent.String(),
				"amount_total":    f.AmountTotal.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
