package progress

import (
	"testing"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name           string
		previousQty    string
		currentQty     string
		previousAmount string
		unitPrice      string
		want           Figures
		wantErr        error
	}{
		{
			name:           "first period",
			previousQty:    "0",
			currentQty:     "4",
			previousAmount: "0",
			unitPrice:      "100",
			want: Figures{
				QuantityPrevious: d("0"),
				QuantityCurrent:  d("4"),
				QuantityTotal:    d("4"),
				AmountPrevious:   d("0"),
				AmountCurrent:    d("400"),
				AmountTotal:      d("400"),
			},
		},
		{
			name:           "carried baseline with fractional quantity",
			previousQty:    "4",
			currentQty:     "2.5",
			previousAmount: "400",
			unitPrice:      "12.40",
			want: Figures{
				QuantityPrevious: d("4"),
				QuantityCurrent:  d("2.5"),
				QuantityTotal:    d("6.5"),
				AmountPrevious:   d("400"),
				AmountCurrent:    d("31"),
				AmountTotal:      d("431"),
			},
		},
		{
			name:           "nothing entered",
			previousQty:    "7",
			currentQty:     "0",
			previousAmount: "70",
			unitPrice:      "10",
			want: Figures{
				QuantityPrevious: d("7"),
				QuantityCurrent:  d("0"),
				QuantityTotal:    d("7"),
				AmountPrevious:   d("70"),
				AmountCurrent:    d("0"),
				AmountTotal:      d("70"),
			},
		},
		{
			name:           "negative current quantity",
			previousQty:    "4",
			currentQty:     "-1",
			previousAmount: "400",
			unitPrice:      "100",
			wantErr:        ierr.ErrValidation,
		},
		{
			name:           "negative unit price",
			previousQty:    "0",
			currentQty:     "1",
			previousAmount: "0",
			unitPrice:      "-3",
			wantErr:        ierr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeLine(d(tt.previousQty), d(tt.currentQty), d(tt.previousAmount), d(tt.unitPrice))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.QuantityPrevious.Equal(got.QuantityPrevious), "quantity previous")
			assert.True(t, tt.want.QuantityCurrent.Equal(got.QuantityCurrent), "quantity current")
			assert.True(t, tt.want.QuantityTotal.Equal(got.QuantityTotal), "quantity total")
			assert.True(t, tt.want.AmountPrevious.Equal(got.AmountPrevious), "amount previous")
			assert.True(t, tt.want.AmountCurrent.Equal(got.AmountCurrent), "amount current")
			assert.True(t, tt.want.AmountTotal.Equal(got.AmountTotal), "amount total")
			assert.NoError(t, got.Check())
		})
	}
}

func TestCarryForward(t *testing.T) {
	f, err := ComputeLine(d("0"), d("4"), d("0"), d("100"))
	require.NoError(t, err)

	next := CarryForward(f)
	assert.True(t, next.QuantityPrevious.Equal(d("4")))
	assert.True(t, next.QuantityCurrent.IsZero())
	assert.True(t, next.QuantityTotal.Equal(d("4")))
	assert.True(t, next.AmountPrevious.Equal(d("400")))
	assert.True(t, next.AmountCurrent.IsZero())
	assert.True(t, next.AmountTotal.Equal(d("400")))
	assert.NoError(t, next.Check())
}

func TestComputeLineRoundsAmountToStoredScale(t *testing.T) {
	f, err := ComputeLine(d("1"), d("0.333333"), d("10.5"), d("0.5"))
	require.NoError(t, err)

	assert.Equal(t, "0.166667", f.AmountCurrent.String())
	assert.Equal(t, "10.666667", f.AmountTotal.String())
	assert.NoError(t, f.Check())

	// carried forward amounts keep the rounded total
	next := CarryForward(f)
	assert.True(t, next.AmountPrevious.Equal(d("10.666667")))
}

func TestComputeLineRejectsExcessPrecision(t *testing.T) {
	_, err := ComputeLine(d("0"), d("1.1234567"), d("0"), d("10"))
	assert.True(t, ierr.IsValidation(err))

	_, err = ComputeLine(d("0"), d("1"), d("0"), d("0.0000001"))
	assert.True(t, ierr.IsValidation(err))

	// trailing zeros beyond the scale are accepted
	f, err := ComputeLine(d("0"), d("1.50000000"), d("0"), d("2"))
	require.NoError(t, err)
	assert.True(t, f.AmountCurrent.Equal(d("3")))
}

func TestFiguresCheckDetectsDrift(t *testing.T) {
	f := Figures{
		QuantityPrevious: d("1"),
		QuantityCurrent:  d("1"),
		QuantityTotal:    d("3"),
		AmountPrevious:   d("0"),
		AmountCurrent:    d("0"),
		AmountTotal:      d("0"),
	}
	assert.True(t, ierr.IsValidation(f.Check()))

	f.QuantityTotal = d("2")
	f.AmountTotal = d("5")
	assert.True(t, ierr.IsValidation(f.Check()))
}
