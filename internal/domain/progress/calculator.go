package progress

import (
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places stored for quantities, prices and
// amounts.
const Scale = 6

// CheckScale rejects values with more decimal places than can be stored.
func CheckScale(field string, v decimal.Decimal) error {
	if v.Equal(v.Round(Scale)) {
		return nil
	}
	return ierr.NewErrorf("%s has more than %d decimal places", field, Scale).
		WithHintf("%s accepts at most %d decimal places", field, Scale).
		WithReportableDetails(map[string]any{
			field: v.String(),
		}).
		Mark(ierr.ErrValidation)
}

// ComputeLine derives the figures of a line from its carried-forward baseline
// and the quantity entered for the period:
//
//	amountCurrent  = round(currentQty * unitPrice, Scale)
//	quantityTotal  = previousQty + currentQty
//	amountTotal    = previousAmount + amountCurrent
//
// It is pure and applies identically to line items and change order items.
func ComputeLine(previousQty, currentQty, previousAmount, unitPrice decimal.Decimal) (Figures, error) {
	if currentQty.IsNegative() {
		return Figures{}, ierr.NewError("current quantity must be non negative").
			WithHint("Current quantity cannot be negative").
			WithReportableDetails(map[string]any{
				"quantity_current": currentQty.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if unitPrice.IsNegative() {
		return Figures{}, ierr.NewError("unit price must be non negative").
			WithHint("Unit price cannot be negative").
			WithReportableDetails(map[string]any{
				"unit_price": unitPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if err := CheckScale("quantity_current", currentQty); err != nil {
		return Figures{}, err
	}
	if err := CheckScale("unit_price", unitPrice); err != nil {
		return Figures{}, err
	}

	amountCurrent := currentQty.Mul(unitPrice).Round(Scale)

	return Figures{
		QuantityPrevious: previousQty,
		QuantityCurrent:  currentQty,
		QuantityTotal:    previousQty.Add(currentQty),
		AmountPrevious:   previousAmount,
		AmountCurrent:    amountCurrent,
		AmountTotal:      previousAmount.Add(amountCurrent),
	}, nil
}

// CarryForward returns the opening figures of the next period: the totals of f
// become the previous baseline and nothing is entered for the new period yet.
func CarryForward(f Figures) Figures {
	return Figures{
		QuantityPrevious: f.QuantityTotal,
		QuantityCurrent:  decimal.Zero,
		QuantityTotal:    f.QuantityTotal,
		AmountPrevious:   f.AmountTotal,
		AmountCurrent:    decimal.Zero,
		AmountTotal:      f.AmountTotal,
	}
}

// OpeningFigures are the figures of an item with no billing history.
func OpeningFigures() Figures {
	return Figures{
		QuantityPrevious: decimal.Zero,
		QuantityCurrent:  decimal.Zero,
		QuantityTotal:    decimal.Zero,
		AmountPrevious:   decimal.Zero,
		AmountCurrent:    decimal.Zero,
		AmountTotal:      decimal.Zero,
	}
}
