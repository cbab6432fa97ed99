package progress

import (
	"time"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
)

// State is a dated, sequence-numbered billing snapshot of a scope.
// A state is a Draft while IsFinalized is false and Finalized otherwise.
type State struct {
	ID             string          `db:"id" json:"id"`
	ScopeID        string          `db:"scope_id" json:"scope_id"`
	ScopeType      types.ScopeType `db:"scope_type" json:"scope_type"`
	SequenceNumber int             `db:"sequence_number" json:"sequence_number"`
	SnapshotDate   time.Time       `db:"snapshot_date" json:"snapshot_date"`
	Comments       string          `db:"comments" json:"comments"`
	IsFinalized    bool            `db:"is_finalized" json:"is_finalized"`
	FinalizedAt    *time.Time      `db:"finalized_at" json:"finalized_at,omitempty"`
	AuthorID       string          `db:"author_id" json:"author_id"`

	// Version starts at 1 and is incremented by every mutation of the state
	// or of one of its items.
	Version int `db:"version" json:"version"`

	LineItems        []*LineItem        `db:"-" json:"line_items,omitempty"`
	ChangeOrderItems []*ChangeOrderItem `db:"-" json:"change_order_items,omitempty"`
	types.BaseModel
}

// InitialVersion is the version of a freshly created state.
const InitialVersion = 1

func (s *State) ProgressStatus() types.ProgressStateStatus {
	if s.IsFinalized {
		return types.ProgressStateStatusFinalized
	}
	return types.ProgressStateStatusDraft
}

func (s *State) IsDraft() bool {
	return !s.IsFinalized
}

// IsUntouched reports whether nothing happened to the state since it was
// created. It is used to decide whether a spawned successor may be discarded.
func (s *State) IsUntouched() bool {
	return !s.IsFinalized && s.Version <= InitialVersion
}

func (s *State) Validate() error {
	if s.ScopeID == "" {
		return ierr.NewError("scope_id is required").
			WithHint("A progress state must belong to a scope").
			Mark(ierr.ErrValidation)
	}

	if err := s.ScopeType.Validate(); err != nil {
		return err
	}

	if s.SequenceNumber < 1 {
		return ierr.NewError("sequence_number must be positive").
			WithHint("Sequence numbers start at 1").
			WithReportableDetails(map[string]any{
				"sequence_number": s.SequenceNumber,
			}).
			Mark(ierr.ErrValidation)
	}

	if s.SnapshotDate.IsZero() {
		return ierr.NewError("snapshot_date is required").
			WithHint("Snapshot date is required").
			Mark(ierr.ErrValidation)
	}

	if s.AuthorID == "" {
		return ierr.NewError("author_id is required").
			WithHint("A progress state must have an author").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// NewSuccessor returns the next Draft state of the same scope. Items are not
// copied; see LineItem.CarryForward and ChangeOrderItem.CarryForward.
func (s *State) NewSuccessor(actor string, snapshotDate time.Time) *State {
	base := s.BaseModel
	now := time.Now().UTC()
	base.CreatedAt = now
	base.UpdatedAt = now
	base.CreatedBy = actor
	base.UpdatedBy = actor
	base.Status = types.StatusPublished

	return &State{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROGRESS_STATE),
		ScopeID:        s.ScopeID,
		ScopeType:      s.ScopeType,
		SequenceNumber: s.SequenceNumber + 1,
		SnapshotDate:   snapshotDate,
		AuthorID:       actor,
		Version:        InitialVersion,
		BaseModel:      base,
	}
}
