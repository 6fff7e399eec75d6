package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/howard-nolan/vertexproxy/internal/auth"
	"github.com/howard-nolan/vertexproxy/internal/config"
	"github.com/howard-nolan/vertexproxy/internal/region"
	"github.com/howard-nolan/vertexproxy/internal/translate"
	"github.com/stretchr/testify/require"
	"gopkg.in/dnaeon/go-vcr.v4/cassette"
	"gopkg.in/dnaeon/go-vcr.v4/recorder"
)

// TestDispatch_RegionFailoverAgainstCassette replays a recorded
// us-east5 503 followed by a us-central1 200 against the fixture in
// testdata/region_failover.yaml, exercising the same region-failover
// path TestRunFailover_RetryableThenSuccess covers with synthetic
// responses, but through the real Dispatcher and a real http.Client
// (spec.md §8 scenario 2).
func TestDispatch_RegionFailoverAgainstCassette(t *testing.T) {
	r, err := recorder.New("testdata/region_failover",
		recorder.WithMode(recorder.ModeReplayOnly),
		recorder.WithMatcher(func(req *http.Request, i cassette.Request) bool {
			return req.Method == i.Method && req.URL.String() == i.URL
		}),
	)
	require.NoError(t, err)
	defer r.Stop()

	cfg := &config.Config{ProjectID: "test-project"}
	planner := region.NewPlanner(nil)
	bridge := &auth.StaticBridge{Tok: "test-token"}
	client := &http.Client{Transport: r}
	d := New(cfg, planner, bridge, client, nil)

	raw, err := json.Marshal(map[string]any{
		"model":      "claude-haiku-4-5@20251001",
		"max_tokens": 256,
		"messages":   []map[string]string{{"role": "user", "content": "hi"}},
	})
	require.NoError(t, err)

	req := &translate.NormalizedRequest{
		ModelInput:     "claude-haiku-4-5@20251001",
		RawPassthrough: raw,
		RequestID:      "req-vcr-1",
	}

	result, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 2)
	require.Equal(t, "us-east5", result.Attempts[0].Region)
	require.Equal(t, OutcomeRetryable, result.Attempts[0].Outcome)
	require.Equal(t, "us-central1", result.Attempts[1].Region)
	require.Equal(t, OutcomeSuccess, result.Attempts[1].Outcome)
}
