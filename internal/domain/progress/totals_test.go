package progress

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals(t *testing.T) {
	d := decimal.RequireFromString

	lineA, err := ComputeLine(d("2"), d("3"), d("200"), d("100"))
	require.NoError(t, err)
	lineB, err := ComputeLine(d("0"), d("1.5"), d("0"), d("20"))
	require.NoError(t, err)
	co, err := ComputeLine(d("0"), d("1"), d("0"), d("50"))
	require.NoError(t, err)

	lines := SumLineItems([]*LineItem{{Figures: lineA}, {Figures: lineB}})
	assert.True(t, d("200").Equal(lines.AmountPrevious))
	assert.True(t, d("330").Equal(lines.AmountCurrent))
	assert.True(t, d("530").Equal(lines.AmountTotal))

	changeOrders := SumChangeOrders([]*ChangeOrderItem{{Figures: co}})
	grand := lines.Plus(changeOrders)
	assert.True(t, d("380").Equal(grand.AmountCurrent))
	assert.True(t, d("580").Equal(grand.AmountTotal))

	empty := SumLineItems(nil)
	assert.True(t, empty.AmountTotal.IsZero())
}
