// Package inference assigns every module to an architectural layer and
// derives the layer hierarchy and allowed-dependency map from the observed
// dependency flow.
package inference

import (
	"sort"
	"strings"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// LayerPattern lists the path fragments that identify a layer.
type LayerPattern struct {
	Layer     ir.Layer
	Fragments []string
}

// DefaultPatterns are tried in order; the first layer with a matching
// fragment wins.
var DefaultPatterns = []LayerPattern{
	{ir.LayerPresentation, []string{"client", "frontend", "web", "mobile", "ui", "view", "presentation"}},
	{ir.LayerGateway, []string{"gateway", "api", "controller", "endpoint", "route", "handler"}},
	{ir.LayerService, []string{"service", "business", "domain", "core", "logic", "usecase"}},
	{ir.LayerData, []string{"data", "repository", "dao", "model", "database", "db", "persistence"}},
	{ir.LayerLegacy, []string{"legacy", "old", "deprecated", "v1"}},
}

// DefaultLevels is the starting hierarchy before dependency votes.
var DefaultLevels = ir.Hierarchy{
	ir.LayerPresentation: 0,
	ir.LayerGateway:      1,
	ir.LayerService:      2,
	ir.LayerData:         3,
	ir.LayerLegacy:       4,
}

const (
	// FallbackLayer is assigned when no pattern matches.
	FallbackLayer = ir.LayerService
	// FallbackLevel is the starting level of layers outside DefaultLevels.
	FallbackLevel = 2
	// VoteThreshold is the number of distinct dependencies a layer pair
	// needs before it can reorder the hierarchy.
	VoteThreshold = 2
)

// Result is the inferred architecture.
type Result struct {
	Assignment ir.LayerAssignment
	Hierarchy  ir.Hierarchy
	Allowed    ir.AllowedDependencyMap
}

// Config returns the architecture configuration consumed by the rules engine.
func (r *Result) Config() ir.ArchitectureConfig {
	return ir.ArchitectureConfig{
		Layers:              r.Hierarchy.Ordered(),
		Hierarchy:           r.Hierarchy,
		AllowedDependencies: r.Allowed,
	}
}

// Engine infers layers. The zero value uses the defaults.
type Engine struct {
	Patterns      []LayerPattern
	BaseLevels    ir.Hierarchy
	VoteThreshold int
}

// New returns an engine with the default patterns and levels.
func New() *Engine {
	return &Engine{Patterns: DefaultPatterns, BaseLevels: DefaultLevels, VoteThreshold: VoteThreshold}
}

// Infer assigns a layer to every node of g (writing it onto the nodes) and
// computes the hierarchy and allowed-dependency map.
func (e *Engine) Infer(g *depgraph.Graph) *Result {
	assignment := make(ir.LayerAssignment, g.Len())
	for _, m := range g.Nodes() {
		layer := e.Classify(m.FilePath, m.ID)
		assignment[m.ID] = layer
		m.Layer = layer
	}
	h := e.hierarchy(g, assignment)
	return &Result{
		Assignment: assignment,
		Hierarchy:  h,
		Allowed:    AllowedFrom(h),
	}
}

// Classify returns the layer for a file path and module ID.
func (e *Engine) Classify(filePath, moduleID string) ir.Layer {
	p := strings.ToLower(filePath)
	id := strings.ToLower(moduleID)
	for _, lp := range e.patterns() {
		for _, frag := range lp.Fragments {
			if strings.Contains(p, frag) || strings.Contains(id, frag) {
				return lp.Layer
			}
		}
	}
	return FallbackLayer
}

type layerPair struct {
	from, to ir.Layer
}

// hierarchy starts from the base levels of the layers present and applies
// one pass of dependency votes, strongest pair first. A pair above the
// threshold pushes its target at least one level below its source. Levels
// are only ever raised and each pair is visited once, so a less frequent
// opposite flow can leave the result inconsistent; this is a majority-vote
// correction, not a topological ordering.
func (e *Engine) hierarchy(g *depgraph.Graph, assignment ir.LayerAssignment) ir.Hierarchy {
	h := make(ir.Hierarchy)
	for _, l := range assignment {
		if _, ok := h[l]; ok {
			continue
		}
		if lvl, ok := e.baseLevels()[l]; ok {
			h[l] = lvl
		} else {
			h[l] = FallbackLevel
		}
	}

	votes := make(map[layerPair]int)
	for _, id := range g.IDs() {
		for _, succ := range g.Successors(id) {
			from, to := assignment[id], assignment[succ]
			if from != to {
				votes[layerPair{from, to}]++
			}
		}
	}

	pairs := make([]layerPair, 0, len(votes))
	for p := range votes {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if votes[a] != votes[b] {
			return votes[a] > votes[b]
		}
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	threshold := e.threshold()
	for _, p := range pairs {
		if votes[p] <= threshold {
			break
		}
		if h[p.from] >= h[p.to] {
			h[p.to] = h[p.from] + 1
		}
	}
	return h
}

// AllowedFrom derives the allowed-dependency map: a layer may depend on
// every other layer at the same level or deeper.
func AllowedFrom(h ir.Hierarchy) ir.AllowedDependencyMap {
	ordered := h.Ordered()
	allowed := make(ir.AllowedDependencyMap, len(h))
	for _, l := range ordered {
		deps := []ir.Layer{}
		for _, other := range ordered {
			if other != l && h[other] >= h[l] {
				deps = append(deps, other)
			}
		}
		allowed[l] = deps
	}
	return allowed
}

func (e *Engine) patterns() []LayerPattern {
	if len(e.Patterns) == 0 {
		return DefaultPatterns
	}
	return e.Patterns
}

func (e *Engine) baseLevels() ir.Hierarchy {
	if e.BaseLevels == nil {
		return DefaultLevels
	}
	return e.BaseLevels
}

func (e *Engine) threshold() int {
	if e.VoteThreshold <= 0 {
		return VoteThreshold
	}
	return e.VoteThreshold
}
