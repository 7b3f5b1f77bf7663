package cache

import (
	"context"
	"testing"

	"rawvariant/internal/pairing"

	"github.com/stretchr/testify/assert"
)

var _ pairing.Invalidator = (*CodeCache)(nil)

func TestKey(t *testing.T) {
	assert.Equal(t, "catalog:code:RAW10", Key("RAW10"))
}

func TestCodeCache_NilIsNoop(t *testing.T) {
	ctx := context.Background()

	for _, c := range []*CodeCache{nil, NewCodeCache(nil, 0)} {
		var dst map[string]string
		assert.False(t, c.Get(ctx, "MAIN10", &dst))
		assert.NotPanics(t, func() {
			c.Set(ctx, "MAIN10", map[string]string{"code": "MAIN10"})
			c.Invalidate(ctx, "MAIN10", "RAW10")
		})
	}
}
