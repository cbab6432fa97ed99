package scope

import (
	"github.com/chantier/avancement/internal/types"
	"github.com/shopspring/decimal"
)

// Scope is the billing context progress states are recorded against: a client
// contract as a whole, or one subcontractor's purchase order. Scopes and their
// lines are owned by the contract management side and are read-only here.
type Scope struct {
	ID        string          `db:"id" json:"id"`
	Type      types.ScopeType `db:"scope_type" json:"scope_type"`
	Reference string          `db:"reference" json:"reference"`
	Label     string          `db:"label" json:"label"`
	// ContractID is the client contract the scope belongs to; for a contract
	// scope it is the contract itself.
	ContractID string `db:"contract_id" json:"contract_id"`
	// SubcontractorID is set for subcontractor order scopes only.
	SubcontractorID *string `db:"subcontractor_id" json:"subcontractor_id,omitempty"`
	// OrderLocked tells whether the subcontractor purchase order has been
	// locked. Progress billing can only start on a locked order.
	OrderLocked bool `db:"order_locked" json:"order_locked"`
	types.BaseModel
}

// Line is one billable line of a contract or order.
type Line struct {
	ID               string          `db:"id" json:"id"`
	ScopeID          string          `db:"scope_id" json:"scope_id"`
	ArticleCode      string          `db:"article_code" json:"article_code"`
	Description      string          `db:"description" json:"description"`
	Unit             string          `db:"unit" json:"unit"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unit_price"`
	ContractQuantity decimal.Decimal `db:"contract_quantity" json:"contract_quantity"`
	Position         int             `db:"position" json:"position"`
	types.BaseModel
}

// ContractAmount is the contractual value of the line.
func (l *Line) ContractAmount() decimal.Decimal {
	return l.ContractQuantity.Mul(l.UnitPrice)
}

// CanStartBilling reports whether progress states may be created for the scope.
func (s *Scope) CanStartBilling() bool {
	if s.Type == types.ScopeTypeSubcontractorOrder {
		return s.OrderLocked
	}
	return true
}
