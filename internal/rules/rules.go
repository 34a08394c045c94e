// Package rules compiles an inferred architecture into explicit pairwise
// layer policies and rates the severity of disallowed dependencies.
package rules

import (
	"fmt"
	"sort"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// Rule names that are not derived from a layer pair.
const (
	RuleLegacyIsolation     = "legacy_isolation"
	RuleLayerBoundary       = "layer_boundary"
	RuleAcyclicDependencies = "acyclic_dependencies"
	RuleGatewayEnforcement  = "gateway_enforcement"
)

// unknownDepth ranks layers missing from the hierarchy below every known one.
const unknownDepth = 999

// Rule is one compiled policy. Structural rules leave Source empty and
// apply to every source layer.
type Rule struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Source      ir.Layer `json:"source,omitempty"`
	Target      ir.Layer `json:"target"`
	Allowed     bool     `json:"allowed"`
}

type pair struct {
	source, target ir.Layer
}

// RuleSet is the compiled, read-only policy for one analysis.
type RuleSet struct {
	rules     []Rule
	byPair    map[pair]int
	legacy    *Rule
	hierarchy ir.Hierarchy
	depth     map[int]int
	allowed   ir.AllowedDependencyMap
}

// Compile emits one rule per ordered pair of distinct layers, plus the
// legacy isolation rule when a legacy layer is present.
func Compile(cfg ir.ArchitectureConfig) *RuleSet {
	layers := cfg.Layers
	if len(layers) == 0 {
		layers = cfg.Hierarchy.Ordered()
	}
	rs := &RuleSet{
		byPair:    make(map[pair]int),
		hierarchy: cfg.Hierarchy,
		depth:     denseDepths(cfg.Hierarchy),
		allowed:   cfg.AllowedDependencies,
	}
	hasLegacy := false
	for _, src := range layers {
		if src == ir.LayerLegacy {
			hasLegacy = true
		}
		for _, tgt := range layers {
			if src == tgt {
				continue
			}
			r := Rule{Source: src, Target: tgt}
			if cfg.AllowedDependencies.Allows(src, tgt) {
				r.Allowed = true
				r.Name = fmt.Sprintf("%s_to_%s_allowed", src, tgt)
				r.Description = fmt.Sprintf("%s layer may depend on %s layer", src, tgt)
			} else {
				r.Name = fmt.Sprintf("%s_to_%s_forbidden", src, tgt)
				r.Description = fmt.Sprintf("%s layer must not depend on %s layer", src, tgt)
			}
			rs.byPair[pair{src, tgt}] = len(rs.rules)
			rs.rules = append(rs.rules, r)
		}
	}
	if hasLegacy {
		rs.rules = append(rs.rules, Rule{
			Name:        RuleLegacyIsolation,
			Description: "Legacy systems should be isolated behind anti-corruption layer",
			Target:      ir.LayerLegacy,
		})
		rs.legacy = &rs.rules[len(rs.rules)-1]
	}
	return rs
}

// Rules returns every compiled rule, pairwise rules first.
func (rs *RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// RuleFor returns the rule governing source -> target. Legacy isolation
// takes precedence over the pairwise rule.
func (rs *RuleSet) RuleFor(source, target ir.Layer) (Rule, bool) {
	if rs.isolatesLegacy(source, target) {
		return *rs.legacy, true
	}
	if i, ok := rs.byPair[pair{source, target}]; ok {
		return rs.rules[i], true
	}
	return Rule{}, false
}

// IsAllowed reports whether source may depend on target. Without a compiled
// rule for the pair it falls back to the allowed-dependency map.
func (rs *RuleSet) IsAllowed(source, target ir.Layer) bool {
	if r, ok := rs.RuleFor(source, target); ok {
		return r.Allowed
	}
	return rs.allowed.Allows(source, target)
}

// SeverityOf rates a dependency already known to be disallowed. Distances
// are measured in tiers of the hierarchy actually present, so an upward
// dependency that jumps over at least one populated tier is critical.
func (rs *RuleSet) SeverityOf(source, target ir.Layer) ir.Severity {
	src, tgt := rs.Depth(source), rs.Depth(target)
	switch {
	case src-tgt >= 2 || target == ir.LayerLegacy:
		return ir.SeverityCritical
	case tgt < src:
		return ir.SeverityHigh
	case abs(src-tgt) > 1:
		return ir.SeverityMedium
	default:
		return ir.SeverityLow
	}
}

// Depth returns the tier of a layer: the index of its level among the
// distinct levels of the hierarchy. Unknown layers rank deepest.
func (rs *RuleSet) Depth(l ir.Layer) int {
	if lvl, ok := rs.hierarchy.Level(l); ok {
		return rs.depth[lvl]
	}
	return unknownDepth
}

func denseDepths(h ir.Hierarchy) map[int]int {
	seen := make(map[int]bool, len(h))
	var levels []int
	for _, lvl := range h {
		if !seen[lvl] {
			seen[lvl] = true
			levels = append(levels, lvl)
		}
	}
	sort.Ints(levels)
	depth := make(map[int]int, len(levels))
	for i, lvl := range levels {
		depth[lvl] = i
	}
	return depth
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (rs *RuleSet) isolatesLegacy(source, target ir.Layer) bool {
	return rs.legacy != nil && target == ir.LayerLegacy && source != ir.LayerLegacy
}
