// Package catalog holds the compiled-in model registry and the alias
// resolution algorithm that turns a caller-supplied model string into a
// canonical upstream model id plus a provider tag.
package catalog

import (
	"log"
	"strings"
)

// Provider is the upstream wire format a canonical model id speaks.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderImagen    Provider = "imagen"
)

// ModelSpec is an immutable record describing one canonical model.
// The table of ModelSpecs is compiled in at process start and never
// mutated afterward — there is no admin API that edits the catalog at
// runtime.
type ModelSpec struct {
	ID          string   // canonical id, e.g. "claude-haiku-4-5@20251001"
	DisplayName string
	Provider    Provider
	ContextWindow int // tokens
	MaxOutput     int // tokens
	Regions       []string // ordered hint, consulted by the region planner
}

// entry pairs a ModelSpec with its insertion index, so prefix-matching
// (resolve step 3) can break ties deterministically in catalog order.
type entry struct {
	spec  ModelSpec
	order int
}

// table is the compiled-in catalog, keyed by canonical id.
var table = buildTable()

// order preserves insertion order for prefix-match tie-breaking.
var order []string

func buildTable() map[string]entry {
	specs := []ModelSpec{
		{
			ID:            "claude-sonnet-4-5@20250929",
			DisplayName:   "Claude Sonnet 4.5",
			Provider:      ProviderAnthropic,
			ContextWindow: 200_000,
			MaxOutput:     8192,
			Regions:       []string{"us-east5", "us-central1", "europe-west1"},
		},
		{
			ID:            "claude-haiku-4-5@20251001",
			DisplayName:   "Claude Haiku 4.5",
			Provider:      ProviderAnthropic,
			ContextWindow: 200_000,
			MaxOutput:     8192,
			Regions:       []string{"us-east5", "us-central1", "europe-west1"},
		},
		{
			ID:            "claude-opus-4-1@20250805",
			DisplayName:   "Claude Opus 4.1",
			Provider:      ProviderAnthropic,
			ContextWindow: 200_000,
			MaxOutput:     8192,
			Regions:       []string{"us-east5", "europe-west1"},
		},
		{
			ID:            "gemini-2.5-pro",
			DisplayName:   "Gemini 2.5 Pro",
			Provider:      ProviderGoogle,
			ContextWindow: 1_048_576,
			MaxOutput:     65_536,
			Regions:       []string{"global"},
		},
		{
			ID:            "gemini-2.5-flash",
			DisplayName:   "Gemini 2.5 Flash",
			Provider:      ProviderGoogle,
			ContextWindow: 1_048_576,
			MaxOutput:     65_536,
			Regions:       []string{"global"},
		},
		{
			ID:            "imagen-4.0-generate-001",
			DisplayName:   "Imagen 4",
			Provider:      ProviderImagen,
			ContextWindow: 0,
			MaxOutput:     0,
			Regions:       []string{"us-central1"},
		},
	}

	t := make(map[string]entry, len(specs))
	for i, s := range specs {
		t[s.ID] = entry{spec: s, order: i}
		order = append(order, s.ID)
	}
	return t
}

// DefaultAliases is the built-in alias table, layered under whatever the
// config file supplies. Config aliases win on conflict. This is where
// the "sonnet" ambiguity (spec.md Design Notes, open question) is
// resolved once and for all: we pick the newer dated snapshot.
var DefaultAliases = map[string]string{
	"sonnet": "claude-sonnet-4-5@20250929",
	"haiku":  "claude-haiku-4-5@20251001",
	"opus":   "claude-opus-4-1@20250805",
}

// Lookup returns the ModelSpec for a canonical id, if known.
func Lookup(canonical string) (ModelSpec, bool) {
	e, ok := table[canonical]
	return e.spec, ok
}

// All returns every compiled-in ModelSpec, in catalog (insertion) order.
func All() []ModelSpec {
	specs := make([]ModelSpec, 0, len(order))
	for _, id := range order {
		specs = append(specs, table[id].spec)
	}
	return specs
}

// Resolution is the result of resolving an inbound model string.
type Resolution struct {
	Canonical string
	Provider  Provider
	Spec      *ModelSpec // nil when the model isn't in the compiled catalog
}

// Resolve implements the algorithm from spec.md §4.1:
//  1. substitute through the alias table if input is a known alias
//  2. if the result is a catalog key, return its spec
//  3. if input looks like an unqualified claude model ("claude-" prefix,
//     no "@"), prefix-match against the catalog in insertion order
//  4. otherwise default to the anthropic branch with an unknown spec;
//     the resolver itself stays pure, so it logs nothing — the caller
//     checks Resolution.Unresolved and logs the warning
//
// Resolve is pure and side-effect free, as spec.md requires; logging a
// warning for the unresolved case is the caller's job (see dispatch).
func Resolve(aliases map[string]string, input string) Resolution {
	candidate := input
	if target, ok := aliases[input]; ok {
		candidate = target
	}

	if e, ok := table[candidate]; ok {
		spec := e.spec
		return Resolution{Canonical: candidate, Provider: spec.Provider, Spec: &spec}
	}

	if strings.HasPrefix(candidate, "claude-") && !strings.Contains(candidate, "@") {
		for _, id := range order {
			if strings.HasPrefix(id, candidate) {
				e := table[id]
				spec := e.spec
				return Resolution{Canonical: id, Provider: spec.Provider, Spec: &spec}
			}
		}
	}

	return Resolution{Canonical: candidate, Provider: ProviderAnthropic, Spec: nil}
}

// Unresolved reports whether a Resolution fell through to the default
// anthropic branch without matching anything in the catalog. Callers use
// this to decide whether to log catalog.Resolve's implicit warning.
func (r Resolution) Unresolved() bool {
	return r.Spec == nil
}

// WarnUnresolved logs the standard warning for an unresolved model,
// matching spec.md's "unknown models default to the Anthropic branch
// with a warning" invariant (§3).
func WarnUnresolved(input string, r Resolution) {
	if r.Unresolved() {
		log.Printf("warning: model %q not in catalog or alias table, defaulting to anthropic provider", input)
	}
}
