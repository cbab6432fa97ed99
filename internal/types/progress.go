package types

import (
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/samber/lo"
)

// ScopeType is the billing context a sequence of progress states belongs to.
type ScopeType string

const (
	// ScopeTypeContract bills the whole client contract
	ScopeTypeContract ScopeType = "contract"
	// ScopeTypeSubcontractorOrder bills one subcontractor's locked purchase order
	ScopeTypeSubcontractorOrder ScopeType = "subcontractor_order"
)

func (s ScopeType) Validate() error {
	allowed := []ScopeType{
		ScopeTypeContract,
		ScopeTypeSubcontractorOrder,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid scope type").
			WithHintf("Scope type must be one of %v", allowed).
			WithReportableDetails(map[string]any{
				"scope_type": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProgressStateStatus is the derived lock state of a progress state.
type ProgressStateStatus string

const (
	ProgressStateStatusDraft     ProgressStateStatus = "draft"
	ProgressStateStatusFinalized ProgressStateStatus = "finalized"
)

// ProgressStateFilter lists the progress states of one scope, ascending by
// sequence number unless Order says otherwise.
type ProgressStateFilter struct {
	*QueryFilter
	ScopeID     string `json:"scope_id,omitempty" form:"scope_id"`
	IsFinalized *bool  `json:"is_finalized,omitempty" form:"is_finalized"`
}

// NewProgressStateFilter returns an unlimited filter ordered by sequence.
func NewProgressStateFilter(scopeID string) *ProgressStateFilter {
	return &ProgressStateFilter{
		QueryFilter: &QueryFilter{
			Offset: lo.ToPtr(0),
			Order:  lo.ToPtr(OrderAsc),
		},
		ScopeID: scopeID,
	}
}

func (f *ProgressStateFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *ProgressStateFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetLimit()
}

func (f *ProgressStateFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *ProgressStateFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return OrderAsc
	}
	return f.QueryFilter.GetOrder()
}

func (f *ProgressStateFilter) IsUnlimited() bool {
	return f.QueryFilter == nil || f.QueryFilter.IsUnlimited()
}
