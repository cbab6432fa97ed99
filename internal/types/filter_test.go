package types

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestProgressStateFilter(t *testing.T) {
	f := NewProgressStateFilter("scope_1")
	assert.NoError(t, f.Validate())
	assert.True(t, f.IsUnlimited())
	assert.Equal(t, OrderAsc, f.GetOrder())
	assert.Equal(t, 0, f.GetOffset())

	f.Limit = lo.ToPtr(10)
	f.Order = lo.ToPtr(OrderDesc)
	assert.False(t, f.IsUnlimited())
	assert.Equal(t, 10, f.GetLimit())
	assert.Equal(t, OrderDesc, f.GetOrder())

	var _ BaseFilter = f
}

func TestQueryFilterValidate(t *testing.T) {
	assert.Equal(t, OrderAsc, QueryFilter{}.GetOrder())
	assert.Error(t, QueryFilter{Limit: lo.ToPtr(0)}.Validate())
	assert.Error(t, QueryFilter{Offset: lo.ToPtr(-1)}.Validate())
	assert.Error(t, QueryFilter{Order: lo.ToPtr("sideways")}.Validate())
	assert.NoError(t, QueryFilter{Limit: lo.ToPtr(1000), Order: lo.ToPtr(OrderAsc)}.Validate())
}
