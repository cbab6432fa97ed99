package service

import (
	"github.com/chantier/avancement/internal/api/dto"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/testutil"
	"github.com/chantier/avancement/internal/types"
	"github.com/samber/lo"
)

// billTwoPeriods enters quantities in the first period, finalizes it and
// enters more in the second one. It returns both states.
func (s *ProgressServiceSuite) billTwoPeriods() (*dto.ProgressStateResponse, *dto.ProgressStateResponse) {
	ctx := s.GetContext()
	state1 := s.createFirstState(s.testData.contract.ID, true)

	_, err := s.service.UpdateLine(ctx, testActor, state1.ID, s.lineFor(state1, s.testData.masonry.ID).ID, &dto.UpdateLineItemRequest{QuantityCurrent: dp("4")})
	s.Require().NoError(err)
	_, err = s.service.UpdateLine(ctx, testActor, state1.ID, s.lineFor(state1, s.testData.plastering.ID).ID, &dto.UpdateLineItemRequest{QuantityCurrent: dp("10")})
	s.Require().NoError(err)
	_, err = s.service.AddChangeOrder(ctx, testActor, state1.ID, &dto.AddChangeOrderRequest{
		Description:     "extra opening",
		Unit:            "u",
		UnitPrice:       dp("150"),
		QuantityCurrent: d("1"),
	})
	s.Require().NoError(err)

	result, err := s.service.FinalizeState(ctx, testActor, state1.ID)
	s.Require().NoError(err)
	state2 := result.Next

	_, err = s.service.UpdateLine(ctx, testActor, state2.ID, s.lineFor(state2, s.testData.masonry.ID).ID, &dto.UpdateLineItemRequest{QuantityCurrent: dp("3")})
	s.Require().NoError(err)

	return result.Finalized, state2
}

func (s *ProgressServiceSuite) TestGetStateTotals() {
	ctx := s.GetContext()
	state1, state2 := s.billTwoPeriods()

	view, err := s.reports.GetState(ctx, state1.ID)
	s.Require().NoError(err)
	s.Equal(types.ProgressStateStatusFinalized, view.ProgressStatus)
	s.assertDecimal("900", view.LineTotals.AmountTotal, "line_total")
	s.assertDecimal("150", view.ChangeOrderTotals.AmountTotal, "change_order_total")
	s.assertDecimal("1050", view.GrandTotal.AmountTotal, "grand_total")
	s.assertDecimal("1050", view.GrandTotal.AmountCurrent, "grand_current")

	view, err = s.reports.GetState(ctx, state2.ID)
	s.Require().NoError(err)
	s.Equal(types.ProgressStateStatusDraft, view.ProgressStatus)
	s.assertDecimal("1050", view.GrandTotal.AmountPrevious, "grand_previous")
	s.assertDecimal("300", view.GrandTotal.AmountCurrent, "grand_current")
	s.assertDecimal("1350", view.GrandTotal.AmountTotal, "grand_total")

	masonry := s.lineFor(view, s.testData.masonry.ID)
	s.assertDecimal("1000", masonry.ContractAmount, "contract_amount")
	s.Require().NotNil(masonry.CompletionRatio)
	s.assertDecimal("0.7", *masonry.CompletionRatio, "completion_ratio")
}

func (s *ProgressServiceSuite) TestGetStateReflectsMutations() {
	ctx := s.GetContext()
	state1 := s.createFirstState(s.testData.contract.ID, true)

	before, err := s.reports.GetState(ctx, state1.ID)
	s.Require().NoError(err)
	s.True(before.GrandTotal.AmountTotal.IsZero())

	_, err = s.service.UpdateLine(ctx, testActor, state1.ID, s.lineFor(state1, s.testData.masonry.ID).ID, &dto.UpdateLineItemRequest{QuantityCurrent: dp("2")})
	s.Require().NoError(err)

	after, err := s.reports.GetState(ctx, state1.ID)
	s.Require().NoError(err)
	s.Equal(before.Version+1, after.Version)
	s.assertDecimal("200", after.GrandTotal.AmountTotal, "grand_total")

	// a state changed behind the cache is not served stale
	stored := s.storedState(state1.ID)
	expected := stored.Version
	stored.Comments = "edited elsewhere"
	stored.Version = expected + 1
	s.Require().NoError(s.GetStores().ProgressStateRepo.Update(ctx, stored, expected))

	fresh, err := s.reports.GetState(ctx, state1.ID)
	s.Require().NoError(err)
	s.Equal("edited elsewhere", fresh.Comments)
}

func (s *ProgressServiceSuite) TestGetStateErrors() {
	ctx := s.GetContext()

	_, err := s.reports.GetState(ctx, "")
	s.True(ierr.IsValidation(err))

	_, err = s.reports.GetState(ctx, "pst_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *ProgressServiceSuite) TestListStates() {
	ctx := s.GetContext()
	state1, state2 := s.billTwoPeriods()

	list, err := s.reports.ListStates(ctx, s.testData.contract.ID)
	s.Require().NoError(err)
	s.Require().Len(list.Items, 2)
	s.Equal(state1.ID, list.Items[0].ID)
	s.Equal(state2.ID, list.Items[1].ID)
	s.Equal(2, list.Pagination.Total)

	empty, err := s.reports.ListStates(ctx, s.testData.lockedOrder.ID)
	s.Require().NoError(err)
	s.Empty(empty.Items)

	_, err = s.reports.ListStates(ctx, "scope_missing")
	s.True(ierr.IsNotFound(err))

	_, err = s.reports.ListStates(ctx, "")
	s.True(ierr.IsValidation(err))
}

func (s *ProgressServiceSuite) TestGetNextState() {
	ctx := s.GetContext()
	state1, state2 := s.billTwoPeriods()

	next, err := s.reports.GetNextState(ctx, state1.ID)
	s.Require().NoError(err)
	s.Require().NotNil(next)
	s.Equal(state2.ID, next.ID)
	s.Equal(2, next.SequenceNumber)

	next, err = s.reports.GetNextState(ctx, state2.ID)
	s.Require().NoError(err)
	s.Nil(next)

	_, err = s.reports.GetNextState(ctx, "pst_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *ProgressServiceSuite) TestGetScopeSummary() {
	ctx := s.GetContext()

	s.Run("scope without states", func() {
		summary, err := s.reports.GetScopeSummary(ctx, s.testData.contract.ID)
		s.Require().NoError(err)
		s.Equal(0, summary.StateCount)
		s.Nil(summary.LatestStateID)
		s.assertDecimal("2000", summary.ContractTotal, "contract_total")
		s.True(summary.BilledTotal.IsZero())
		s.Require().NotNil(summary.CompletionRatio)
		s.True(summary.CompletionRatio.IsZero())
	})

	s.Run("scope with billed periods", func() {
		_, state2 := s.billTwoPeriods()

		summary, err := s.reports.GetScopeSummary(ctx, s.testData.contract.ID)
		s.Require().NoError(err)
		s.Equal(2, summary.StateCount)
		s.Equal(state2.ID, lo.FromPtr(summary.LatestStateID))
		s.Equal(2, summary.LatestSequence)
		s.assertDecimal("1350", summary.BilledTotal, "billed_total")
		s.Require().NotNil(summary.CompletionRatio)
		s.assertDecimal("0.675", *summary.CompletionRatio, "completion_ratio")
	})

	s.Run("scope without lines", func() {
		empty := testutil.NewTestScope(ctx, types.ScopeTypeContract, false)
		s.Require().NoError(s.GetStores().ScopeRepo.AddScope(ctx, empty))

		summary, err := s.reports.GetScopeSummary(ctx, empty.ID)
		s.Require().NoError(err)
		s.True(summary.ContractTotal.IsZero())
		s.Nil(summary.CompletionRatio)
	})

	s.Run("unknown scope", func() {
		_, err := s.reports.GetScopeSummary(ctx, "scope_missing")
		s.True(ierr.IsNotFound(err))
	})
}
