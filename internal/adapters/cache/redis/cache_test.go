package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere un Redis real: REDIS_TEST_ADDR=localhost:6379 go test ./...
func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	c, err := Open(ctx, Options{Addr: addr})
	require.NoError(t, err)
	defer c.Close()

	key := "gc:test:" + time.Now().Format("150405.000000000")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"lon":21,"lat":52.2}`), time.Minute))
	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"lon":21,"lat":52.2}`, string(v))
}
