package testutil

import (
	"context"

	"github.com/chantier/avancement/internal/domain/scope"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// InMemoryScopeStore implements scope.Repository and lets tests seed the
// contract and order data the service only reads.
type InMemoryScopeStore struct {
	scopes *InMemoryStore[*scope.Scope]
	lines  *InMemoryStore[*scope.Line]
}

var _ scope.Repository = (*InMemoryScopeStore)(nil)

func NewInMemoryScopeStore() *InMemoryScopeStore {
	return &InMemoryScopeStore{
		scopes: NewInMemoryStore[*scope.Scope](),
		lines:  NewInMemoryStore[*scope.Line](),
	}
}

// AddScope seeds a scope
func (s *InMemoryScopeStore) AddScope(ctx context.Context, sc *scope.Scope) error {
	c := *sc
	return s.scopes.Create(ctx, sc.ID, &c)
}

// AddLine seeds a billable line
func (s *InMemoryScopeStore) AddLine(ctx context.Context, line *scope.Line) error {
	c := *line
	return s.lines.Create(ctx, line.ID, &c)
}

// SetOrderLocked flips the lock of a subcontractor order
func (s *InMemoryScopeStore) SetOrderLocked(ctx context.Context, scopeID string, locked bool) error {
	sc, err := s.scopes.Get(ctx, scopeID)
	if err != nil {
		return err
	}
	c := *sc
	c.OrderLocked = locked
	return s.scopes.Update(ctx, scopeID, &c)
}

func (s *InMemoryScopeStore) Get(ctx context.Context, id string) (*scope.Scope, error) {
	sc, err := s.scopes.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Scope %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *sc
	return &c, nil
}

func (s *InMemoryScopeStore) ListLines(ctx context.Context, scopeID string) ([]*scope.Line, error) {
	lines, err := s.lines.List(ctx, scopeID, func(ctx context.Context, l *scope.Line, _ interface{}) bool {
		return l.ScopeID == scopeID && l.Status == types.StatusPublished
	}, func(i, j *scope.Line) bool {
		return i.Position < j.Position
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(lines, func(l *scope.Line, _ int) *scope.Line {
		c := *l
		return &c
	}), nil
}

func (s *InMemoryScopeStore) GetLine(ctx context.Context, id string) (*scope.Line, error) {
	line, err := s.lines.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Scope line %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *line
	return &c, nil
}

func (s *InMemoryScopeStore) Clear() {
	s.scopes.Clear()
	s.lines.Clear()
}

// NewTestScope builds a published scope of the default tenant
func NewTestScope(ctx context.Context, scopeType types.ScopeType, locked bool) *scope.Scope {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SCOPE)
	sc := &scope.Scope{
		ID:          id,
		Type:        scopeType,
		Reference:   "REF-" + id[len(id)-6:],
		Label:       "test scope",
		ContractID:  id,
		OrderLocked: locked,
		BaseModel:   types.GetDefaultBaseModel(ctx, types.DefaultUserID),
	}
	if scopeType == types.ScopeTypeSubcontractorOrder {
		sc.ContractID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SCOPE)
		sc.SubcontractorID = lo.ToPtr(types.GenerateUUID())
	}
	return sc
}

// NewTestLine builds a billable line of scopeID
func NewTestLine(ctx context.Context, scopeID, description string, unitPrice, contractQty string, position int) *scope.Line {
	return &scope.Line{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SCOPE_LINE),
		ScopeID:          scopeID,
		ArticleCode:      "ART-" + description,
		Description:      description,
		Unit:             "m2",
		UnitPrice:        decimal.RequireFromString(unitPrice),
		ContractQuantity: decimal.RequireFromString(contractQty),
		Position:         position,
		BaseModel:        types.GetDefaultBaseModel(ctx, types.DefaultUserID),
	}
}
