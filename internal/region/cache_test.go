package region

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisCache_PollsHashAndRefreshes exercises RedisCache against an
// in-memory miniredis instance instead of a live Redis deployment,
// covering the Redis-backed discovery cache branch of spec.md §4.2.
func TestRedisCache_PollsHashAndRefreshes(t *testing.T) {
	mr := miniredis.RunT(t)

	regions, err := json.Marshal([]string{"asia-south1"})
	require.NoError(t, err)
	mr.HSet("discovery", "claude-haiku-4-5@20251001", string(regions))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rc := NewRedisCache(ctx, mr.Addr(), "discovery", 10*time.Millisecond)

	got, ok := rc.Regions("claude-haiku-4-5@20251001")
	require.True(t, ok)
	assert.Equal(t, []string{"asia-south1"}, got)

	_, ok = rc.Regions("unknown-model")
	assert.False(t, ok)

	updated, err := json.Marshal([]string{"europe-west4"})
	require.NoError(t, err)
	mr.HSet("discovery", "claude-haiku-4-5@20251001", string(updated))

	require.Eventually(t, func() bool {
		got, ok := rc.Regions("claude-haiku-4-5@20251001")
		return ok && len(got) == 1 && got[0] == "europe-west4"
	}, time.Second, 5*time.Millisecond)
}
