package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AppendsLogLineAndStats(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "proxy.log")
	statsPath := filepath.Join(dir, "stats.json")

	r, err := New(logPath, statsPath, 10*1024*1024, 8080)
	require.NoError(t, err)

	r.Record(RequestLogEntry{
		Time:       time.Now(),
		RequestID:  "req-1",
		Method:     "POST",
		Path:       "/v1/chat/completions",
		Model:      "claude-sonnet-4-5@20250929",
		Provider:   "anthropic",
		Regions:    []string{"us-east5"},
		Outcome:    "success",
		Status:     200,
		DurationMS: 42,
	}, 0)

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var entry RequestLogEntry
	require.NoError(t, json.Unmarshal(raw[:len(raw)-1], &entry)) // trim trailing newline
	assert.Equal(t, "req-1", entry.RequestID)

	rawStats, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	var s stats
	require.NoError(t, json.Unmarshal(rawStats, &s))
	assert.EqualValues(t, 1, s.RequestCount)
	assert.Equal(t, 8080, s.Port)

	assert.EqualValues(t, 1, r.RequestCount())
}

func TestRecorder_RotatesAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "proxy.log")
	statsPath := filepath.Join(dir, "stats.json")

	r, err := New(logPath, statsPath, 200, 8080)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		r.Record(RequestLogEntry{
			Time:      time.Now(),
			RequestID: strings.Repeat("x", 20),
			Outcome:   "success",
		}, 0)
	}

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "expected a rotated .1 generation to exist")
}
