package server

import (
	"net/http"
	"sort"

	"github.com/howard-nolan/vertexproxy/internal/catalog"
	"github.com/howard-nolan/vertexproxy/internal/respond"
)

// modelListEntry is one entry in the GET /v1/models response
// (spec.md §2 route table): the OpenAI-shaped fields plus a
// vendor-extension block, and aliases listed with root set to the
// resolved canonical id.
type modelListEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Root    string `json:"root,omitempty"`

	VertexProxy vendorExtension `json:"vertex_proxy"`
}

type vendorExtension struct {
	Provider      catalog.Provider `json:"provider"`
	ContextWindow int              `json:"context_window"`
	MaxOutput     int              `json:"max_output_tokens"`
	Regions       []string         `json:"regions"`
}

// handleModels handles GET /v1/models: every catalog entry, plus every
// default or configured alias whose target is a catalog entry, with root
// set to that target. Aliases pointing outside the catalog are omitted.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	specs := catalog.All()
	entries := make([]modelListEntry, 0, len(specs))

	for _, spec := range specs {
		entries = append(entries, modelListEntry{
			ID:      spec.ID,
			Object:  "model",
			OwnedBy: "google-vertex-ai",
			VertexProxy: vendorExtension{
				Provider:      spec.Provider,
				ContextWindow: spec.ContextWindow,
				MaxOutput:     spec.MaxOutput,
				Regions:       spec.Regions,
			},
		})
	}

	aliases := mergedAliasesForListing(s)
	aliasNames := make([]string, 0, len(aliases))
	for alias := range aliases {
		aliasNames = append(aliasNames, alias)
	}
	sort.Strings(aliasNames)

	for _, alias := range aliasNames {
		target := aliases[alias]
		spec, ok := catalog.Lookup(target)
		if !ok {
			continue
		}
		entries = append(entries, modelListEntry{
			ID:      alias,
			Object:  "model",
			OwnedBy: "google-vertex-ai",
			Root:    target,
			VertexProxy: vendorExtension{
				Provider:      spec.Provider,
				ContextWindow: spec.ContextWindow,
				MaxOutput:     spec.MaxOutput,
				Regions:       spec.Regions,
			},
		})
	}

	respond.WriteJSON(w, map[string]any{
		"object": "list",
		"data":   entries,
	})
}

func mergedAliasesForListing(s *Server) map[string]string {
	merged := make(map[string]string, len(catalog.DefaultAliases)+len(s.cfg.ModelAliases))
	for k, v := range catalog.DefaultAliases {
		merged[k] = v
	}
	for k, v := range s.cfg.ModelAliases {
		merged[k] = v
	}
	return merged
}
