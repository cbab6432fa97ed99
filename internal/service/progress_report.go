package service

import (
	"context"

	"github.com/chantier/avancement/internal/api/dto"
	"github.com/chantier/avancement/internal/cache"
	"github.com/chantier/avancement/internal/domain/progress"
	"github.com/chantier/avancement/internal/domain/scope"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"
)

// ProgressReportService serves read-only views of progress states with their
// line, change order and grand totals.
type ProgressReportService interface {
	// ListStates returns the states of a scope by ascending sequence number
	ListStates(ctx context.Context, scopeID string) (*dto.ListProgressStatesResponse, error)
	GetState(ctx context.Context, stateID string) (*dto.ProgressStateResponse, error)
	// GetNextState returns the state following stateID in its scope, or nil
	GetNextState(ctx context.Context, stateID string) (*dto.ProgressStateResponse, error)
	GetScopeSummary(ctx context.Context, scopeID string) (*dto.ScopeSummaryResponse, error)
}

type progressReportService struct {
	ServiceParams
}

func NewProgressReportService(params ServiceParams) ProgressReportService {
	return &progressReportService{
		ServiceParams: params,
	}
}

func (s *progressReportService) ListStates(ctx context.Context, scopeID string) (*dto.ListProgressStatesResponse, error) {
	if scopeID == "" {
		return nil, ierr.NewError("scope_id is required").
			WithHint("Scope ID is required").
			Mark(ierr.ErrValidation)
	}

	if _, err := s.ScopeRepo.Get(ctx, scopeID); err != nil {
		return nil, err
	}

	filter := types.NewProgressStateFilter(scopeID)
	states, err := s.ProgressStateRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items, err := iter.MapErr(states, func(state **progress.State) (*dto.ProgressStateResponse, error) {
		return s.getStateView(ctx, *state)
	})
	if err != nil {
		return nil, err
	}

	response := types.NewListResponse(items, len(items), filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *progressReportService) GetState(ctx context.Context, stateID string) (*dto.ProgressStateResponse, error) {
	if stateID == "" {
		return nil, ierr.NewError("state_id is required").
			WithHint("Progress state ID is required").
			Mark(ierr.ErrValidation)
	}

	state, err := s.ProgressStateRepo.Get(ctx, stateID)
	if err != nil {
		return nil, err
	}
	return s.getStateView(ctx, state)
}

// getStateView builds the view of a loaded state. Cached views are keyed by
// state and only served while the state version is unchanged.
func (s *progressReportService) getStateView(ctx context.Context, state *progress.State) (*dto.ProgressStateResponse, error) {
	key := stateCacheKey(ctx, state.ID)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if view, ok := cached.(*dto.ProgressStateResponse); ok && view.Version == state.Version {
			return view, nil
		}
	}

	view, err := loadStateResponse(ctx, s.ServiceParams, state)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, view, 0)
	return view, nil
}

func (s *progressReportService) GetNextState(ctx context.Context, stateID string) (*dto.ProgressStateResponse, error) {
	state, err := s.ProgressStateRepo.Get(ctx, stateID)
	if err != nil {
		return nil, err
	}

	next, err := s.ProgressStateRepo.GetNext(ctx, state)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.getStateView(ctx, next)
}

func (s *progressReportService) GetScopeSummary(ctx context.Context, scopeID string) (*dto.ScopeSummaryResponse, error) {
	sc, err := s.ScopeRepo.Get(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	lines, err := s.ScopeRepo.ListLines(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	count, err := s.ProgressStateRepo.Count(ctx, types.NewProgressStateFilter(scopeID))
	if err != nil {
		return nil, err
	}

	summary := &dto.ScopeSummaryResponse{
		Scope:      sc,
		StateCount: count,
		ContractTotal: lo.Reduce(lines, func(acc decimal.Decimal, l *scope.Line, _ int) decimal.Decimal {
			return acc.Add(l.ContractAmount())
		}, decimal.Zero),
		BilledTotal: decimal.Zero,
	}

	latest, err := s.ProgressStateRepo.GetLatest(ctx, scopeID)
	switch {
	case err == nil:
		view, err := s.getStateView(ctx, latest)
		if err != nil {
			return nil, err
		}
		summary.LatestStateID = lo.ToPtr(latest.ID)
		summary.LatestSequence = latest.SequenceNumber
		summary.BilledTotal = view.GrandTotal.AmountTotal
	case !ierr.IsNotFound(err):
		return nil, err
	}

	if !summary.ContractTotal.IsZero() {
		summary.CompletionRatio = lo.ToPtr(summary.BilledTotal.DivRound(summary.ContractTotal, 4))
	}

	return summary, nil
}

func stateCacheKey(ctx context.Context, stateID string) string {
	return cache.GenerateKey(cache.PrefixProgressState, types.GetTenantID(ctx), stateID)
}
