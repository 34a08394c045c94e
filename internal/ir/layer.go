package ir

import "sort"

// Layer is a named architectural tier.
type Layer string

const (
	LayerUnset        Layer = ""
	LayerPresentation Layer = "presentation"
	LayerGateway      Layer = "gateway"
	LayerService      Layer = "service"
	LayerData         Layer = "data"
	LayerLegacy       Layer = "legacy"
	// LayerAdapter is never inferred, but counts as an anti-corruption layer
	// when legacy access is checked.
	LayerAdapter Layer = "adapter"
)

// LayerAssignment maps module ID to its layer.
type LayerAssignment map[string]Layer

// Hierarchy maps layer to level. 0 is the topmost, most abstract layer.
type Hierarchy map[Layer]int

// Level returns the level of l and whether l is part of the hierarchy.
func (h Hierarchy) Level(l Layer) (int, bool) {
	lvl, ok := h[l]
	return lvl, ok
}

// Ordered returns the layers sorted top to bottom, ties broken by name.
func (h Hierarchy) Ordered() []Layer {
	out := make([]Layer, 0, len(h))
	for l := range h {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if h[out[i]] != h[out[j]] {
			return h[out[i]] < h[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// AllowedDependencyMap maps a layer to the layers it may depend on.
type AllowedDependencyMap map[Layer][]Layer

// Allows reports whether source may depend on target.
func (m AllowedDependencyMap) Allows(source, target Layer) bool {
	for _, l := range m[source] {
		if l == target {
			return true
		}
	}
	return false
}

// ArchitectureConfig is the inferred architecture handed to the rules engine
// and exposed to consumers.
type ArchitectureConfig struct {
	Layers              []Layer              `json:"layers"`
	Hierarchy           Hierarchy            `json:"hierarchy"`
	AllowedDependencies AllowedDependencyMap `json:"allowed_dependencies"`
}
