package progress

import "github.com/shopspring/decimal"

// Totals sums the amount columns of a group of items.
type Totals struct {
	AmountPrevious decimal.Decimal `json:"amount_previous"`
	AmountCurrent  decimal.Decimal `json:"amount_current"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
}

func (t Totals) add(f Figures) Totals {
	return Totals{
		AmountPrevious: t.AmountPrevious.Add(f.AmountPrevious),
		AmountCurrent:  t.AmountCurrent.Add(f.AmountCurrent),
		AmountTotal:    t.AmountTotal.Add(f.AmountTotal),
	}
}

// Plus returns the column-wise sum of t and o.
func (t Totals) Plus(o Totals) Totals {
	return Totals{
		AmountPrevious: t.AmountPrevious.Add(o.AmountPrevious),
		AmountCurrent:  t.AmountCurrent.Add(o.AmountCurrent),
		AmountTotal:    t.AmountTotal.Add(o.AmountTotal),
	}
}

func SumLineItems(items []*LineItem) Totals {
	var t Totals
	for _, i := range items {
		t = t.add(i.Figures)
	}
	return t
}

func SumChangeOrders(items []*ChangeOrderItem) Totals {
	var t Totals
	for _, i := range items {
		t = t.add(i.Figures)
	}
	return t
}
