package progress

import (
	"context"
	"testing"
	"time"

	"github.com/chantier/avancement/internal/domain/scope"
	"github.com/chantier/avancement/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLifecycleHelpers(t *testing.T) {
	base := types.GetDefaultBaseModel(context.Background(), "user_1")
	s := &State{
		ID:             "pst_1",
		ScopeID:        "scope_1",
		ScopeType:      types.ScopeTypeContract,
		SequenceNumber: 1,
		SnapshotDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		AuthorID:       "user_1",
		Version:        InitialVersion,
		BaseModel:      base,
	}
	require.NoError(t, s.Validate())
	assert.True(t, s.IsDraft())
	assert.True(t, s.IsUntouched())
	assert.Equal(t, types.ProgressStateStatusDraft, s.ProgressStatus())

	next := s.NewSuccessor("user_2", s.SnapshotDate.AddDate(0, 1, 0))
	assert.Equal(t, 2, next.SequenceNumber)
	assert.Equal(t, s.ScopeID, next.ScopeID)
	assert.Equal(t, "user_2", next.AuthorID)
	assert.NotEqual(t, s.ID, next.ID)
	assert.True(t, next.IsUntouched())
	// the lock status and the record status are independent
	assert.Equal(t, types.StatusPublished, next.Status)
	assert.Equal(t, types.ProgressStateStatusDraft, next.ProgressStatus())

	s.IsFinalized = true
	assert.False(t, s.IsUntouched())
	assert.Equal(t, types.ProgressStateStatusFinalized, s.ProgressStatus())
	assert.Equal(t, base.Status, s.Status)
}

func TestStateValidate(t *testing.T) {
	s := &State{ScopeID: "scope_1", ScopeType: "bogus", SequenceNumber: 1, SnapshotDate: time.Now(), AuthorID: "u"}
	assert.Error(t, s.Validate())

	s.ScopeType = types.ScopeTypeSubcontractorOrder
	s.SequenceNumber = 0
	assert.Error(t, s.Validate())

	s.SequenceNumber = 1
	s.AuthorID = ""
	assert.Error(t, s.Validate())
}

func TestLineItemApplyAndCarryForward(t *testing.T) {
	base := types.GetDefaultBaseModel(context.Background(), "user_1")
	line := &scope.Line{
		ID:               "scope_line_1",
		ArticleCode:      "GO-01",
		Description:      "Béton de fondation",
		Unit:             "m3",
		UnitPrice:        d("100"),
		ContractQuantity: d("10"),
	}

	item := NewLineItem("pst_1", line, OpeningFigures(), base)
	require.NoError(t, item.Apply(d("4")))
	require.NoError(t, item.Validate())
	assert.True(t, item.AmountCurrent.Equal(d("400")))
	assert.True(t, item.CompletionRatio().Equal(d("0.4")))

	next := item.CarryForward("pst_2", base)
	assert.Equal(t, "pst_2", next.StateID)
	assert.Equal(t, item.ScopeLineID, next.ScopeLineID)
	assert.NotEqual(t, item.ID, next.ID)
	assert.True(t, next.QuantityPrevious.Equal(d("4")))
	assert.True(t, next.AmountPrevious.Equal(d("400")))
	assert.True(t, next.QuantityCurrent.IsZero())

	// the original is not affected by the copy
	assert.True(t, item.QuantityCurrent.Equal(d("4")))
}

func TestChangeOrderDetails(t *testing.T) {
	base := types.GetDefaultBaseModel(context.Background(), "user_1")
	details := ChangeOrderDetails{Description: " Extra drainage ", Unit: "ml", UnitPrice: d("35")}
	require.NoError(t, details.Validate())

	item := NewChangeOrderItem("pst_1", details, 1, base)
	assert.Equal(t, item.ID, item.OriginID)
	assert.Equal(t, "Extra drainage", item.Description)
	require.NoError(t, item.Apply(d("2")))
	assert.True(t, item.AmountTotal.Equal(d("70")))

	next := item.CarryForward("pst_2", base)
	assert.Equal(t, item.OriginID, next.OriginID)
	assert.True(t, next.AmountPrevious.Equal(d("70")))

	assert.Error(t, ChangeOrderDetails{Unit: "u"}.Validate())
	assert.Error(t, ChangeOrderDetails{Description: "x"}.Validate())
	assert.Error(t, ChangeOrderDetails{Description: "x", Unit: "u", UnitPrice: d("-1")}.Validate())
}
