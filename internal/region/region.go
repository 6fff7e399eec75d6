// Package region implements the region planner: for a canonical model
// id, it produces the ordered list of Vertex AI regions the failover
// loop should try.
package region

// priority is the global region priority list from spec.md §4.2.
// Regions in this list are always tried first, in this order, when
// present in the chosen region set.
var priority = []string{"us-east5", "us-central1", "europe-west1"}

// priorityIndex gives O(1) membership + rank lookups for Plan's reorder step.
var priorityIndex = func() map[string]int {
	m := make(map[string]int, len(priority))
	for i, r := range priority {
		m[r] = i
	}
	return m
}()

// Cache is the optional "available regions per model" snapshot sourced
// from an external discovery probe. The core only ever reads it — see
// cache.go for the two backends (file, Redis) that populate it.
type Cache interface {
	// Regions returns the discovered region list for a canonical model
	// id, and whether an entry exists at all.
	Regions(canonical string) ([]string, bool)
}

// Planner produces ordered region lists per spec.md §4.2.
type Planner struct {
	cache Cache // may be nil: no discovery cache configured
}

// NewPlanner builds a Planner. cache may be nil.
func NewPlanner(cache Cache) *Planner {
	return &Planner{cache: cache}
}

// Plan implements spec.md §4.2's algorithm:
//  1. discovery cache entry for canonical, if present, wins outright
//  2. else the model spec's own region list, if known
//  3. else the global priority list as a last-resort fallback
//
// In all cases the chosen set is reordered so priority regions come
// first (in priority order), followed by the remaining regions in
// their original relative order. The result is always non-empty.
func (p *Planner) Plan(canonical string, specRegions []string) []string {
	var chosen []string

	if p.cache != nil {
		if regions, ok := p.cache.Regions(canonical); ok && len(regions) > 0 {
			chosen = regions
		}
	}

	if chosen == nil {
		if len(specRegions) > 0 {
			chosen = specRegions
		} else {
			chosen = priority
		}
	}

	return reorder(chosen)
}

// reorder moves any region that appears in the global priority list to
// the front, in priority order, and leaves the rest in their original
// relative order.
func reorder(regions []string) []string {
	var head []string
	var tail []string

	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		seen[r] = true
	}

	// Walk the priority list in order, emitting any that are present.
	for _, p := range priority {
		if seen[p] {
			head = append(head, p)
		}
	}

	// Everything else, in original order, skipping anything already
	// placed in head.
	inHead := make(map[string]bool, len(head))
	for _, r := range head {
		inHead[r] = true
	}
	for _, r := range regions {
		if !inHead[r] {
			tail = append(tail, r)
		}
	}

	out := make([]string, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}
