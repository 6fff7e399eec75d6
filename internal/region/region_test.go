package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCache map[string][]string

func (f fakeCache) Regions(canonical string) ([]string, bool) {
	r, ok := f[canonical]
	return r, ok
}

func TestPlan_NoCacheUsesSpecRegions(t *testing.T) {
	p := NewPlanner(nil)
	got := p.Plan("claude-haiku-4-5@20251001", []string{"asia-northeast1", "us-central1"})
	// us-central1 is in the priority list, so it moves to front.
	assert.Equal(t, []string{"us-central1", "asia-northeast1"}, got)
}

func TestPlan_PriorityOrderPreserved(t *testing.T) {
	p := NewPlanner(nil)
	got := p.Plan("m", []string{"europe-west1", "us-central1", "us-east5"})
	assert.Equal(t, []string{"us-east5", "us-central1", "europe-west1"}, got)
}

func TestPlan_FallsBackToGlobalPriorityWhenSpecUnknown(t *testing.T) {
	p := NewPlanner(nil)
	got := p.Plan("unknown-model", nil)
	assert.Equal(t, priority, got)
}

func TestPlan_CacheOverridesSpec(t *testing.T) {
	cache := fakeCache{"m": {"asia-south1"}}
	p := NewPlanner(cache)
	got := p.Plan("m", []string{"us-east5"})
	assert.Equal(t, []string{"asia-south1"}, got)
}

func TestPlan_NeverEmpty(t *testing.T) {
	p := NewPlanner(nil)
	got := p.Plan("m", nil)
	assert.NotEmpty(t, got)
}
