package cache

import (
	"context"
	"testing"
	"time"

	"github.com/chantier/avancement/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()

	t.Run("set and get", func(t *testing.T) {
		c := NewInMemoryCache(cfg)
		c.Set(ctx, "k", 42, 0)

		v, ok := c.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("delete by prefix", func(t *testing.T) {
		c := NewInMemoryCache(cfg)
		c.Set(ctx, GenerateKey(PrefixProgressState, "pst_1"), "a", time.Minute)
		c.Set(ctx, GenerateKey(PrefixProgressState, "pst_2"), "b", time.Minute)
		c.Set(ctx, GenerateKey("scope:v1:", "scp_1"), "c", time.Minute)

		c.DeleteByPrefix(ctx, PrefixProgressState)

		_, ok := c.Get(ctx, GenerateKey(PrefixProgressState, "pst_1"))
		assert.False(t, ok)
		_, ok = c.Get(ctx, GenerateKey(PrefixProgressState, "pst_2"))
		assert.False(t, ok)
		_, ok = c.Get(ctx, GenerateKey("scope:v1:", "scp_1"))
		assert.True(t, ok)
	})

	t.Run("disabled cache never hits", func(t *testing.T) {
		disabled := config.GetDefaultConfig()
		disabled.Cache.Enabled = false

		c := NewInMemoryCache(disabled)
		c.Set(ctx, "k", 1, 0)

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "progress_state:v1::pst_1:2", GenerateKey(PrefixProgressState, "pst_1", 2))
}
