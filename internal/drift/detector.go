// Package drift walks a layered dependency graph against the compiled rules
// and reports violations.
package drift

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/rules"
)

// Patterns broken by the structural passes.
const (
	PatternAcyclic = "Architecture should be acyclic (no circular dependencies)"
	PatternLegacy  = "Legacy systems must be accessed through anti-corruption layer (gateway/adapter)"
	PatternGateway = "All client requests must route through API Gateway for authentication and routing"
)

// Options toggles detection passes. MaxCycles bounds cycle enumeration;
// zero means unbounded.
type Options struct {
	LayerViolations      bool
	CircularDependencies bool
	LegacyAccess         bool
	GatewayBypass        bool
	MaxCycles            int
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{
		LayerViolations:      true,
		CircularDependencies: true,
		LegacyAccess:         true,
		GatewayBypass:        true,
	}
}

// Enabled reports whether the pass for t runs.
func (o Options) Enabled(t ir.ViolationType) bool {
	switch t {
	case ir.ViolationLayer:
		return o.LayerViolations
	case ir.ViolationCircular:
		return o.CircularDependencies
	case ir.ViolationLegacyAccess:
		return o.LegacyAccess
	case ir.ViolationBypassGateway:
		return o.GatewayBypass
	default:
		return false
	}
}

// Detector runs the enabled passes.
type Detector struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// New creates a detector.
func New(opts Options) *Detector {
	return &Detector{
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// DetectAll runs every pass with default options.
func DetectAll(g *depgraph.Graph, rs *rules.RuleSet, layers ir.LayerAssignment) []ir.Violation {
	return New(DefaultOptions()).Detect(g, rs, layers)
}

// Detect runs the enabled passes in ir.ViolationTypes order. Passes are
// independent: one dependency may produce violations of several types.
func (d *Detector) Detect(g *depgraph.Graph, rs *rules.RuleSet, layers ir.LayerAssignment) []ir.Violation {
	p := pass{Detector: d, g: g, rs: rs, layers: layers, ts: d.now()}
	var out []ir.Violation
	for _, t := range ir.ViolationTypes {
		if !d.opts.Enabled(t) {
			continue
		}
		out = append(out, p.run(t)...)
	}
	return out
}

type pass struct {
	*Detector
	g      *depgraph.Graph
	rs     *rules.RuleSet
	layers ir.LayerAssignment
	ts     time.Time
}

func (p *pass) run(t ir.ViolationType) []ir.Violation {
	switch t {
	case ir.ViolationLayer:
		return p.layerViolations()
	case ir.ViolationCircular:
		return p.circularDependencies()
	case ir.ViolationLegacyAccess:
		return p.legacyAccess()
	case ir.ViolationBypassGateway:
		return p.gatewayBypass()
	default:
		panic(fmt.Sprintf("drift: no pass for violation type %q", t))
	}
}

func (p *pass) violation(t ir.ViolationType, sev ir.Severity, source, target string, path []string) ir.Violation {
	return ir.Violation{
		ID:             p.newID(),
		Type:           t,
		Severity:       sev,
		SourceModule:   source,
		TargetModule:   target,
		DependencyPath: path,
		Timestamp:      p.ts,
	}
}

func (p *pass) layerViolations() []ir.Violation {
	var out []ir.Violation
	for _, src := range p.g.IDs() {
		sl := p.layers[src]
		if sl == ir.LayerUnset {
			continue
		}
		for _, tgt := range p.g.Successors(src) {
			tl := p.layers[tgt]
			if tl == ir.LayerUnset || tl == sl || p.rs.IsAllowed(sl, tl) {
				continue
			}
			v := p.violation(ir.ViolationLayer, p.rs.SeverityOf(sl, tl), src, tgt, []string{src, tgt})
			v.Title = fmt.Sprintf("Layer violation: %s → %s", sl, tl)
			v.Description = fmt.Sprintf("Module %q from %s layer depends on %q from %s layer", src, sl, tgt, tl)
			if r, ok := p.rs.RuleFor(sl, tl); ok {
				v.RuleName = r.Name
				v.PatternBroken = r.Description
			} else {
				v.RuleName = rules.RuleLayerBoundary
				v.PatternBroken = fmt.Sprintf("%s should not depend on %s", sl, tl)
			}
			out = append(out, v)
		}
	}
	return out
}

func (p *pass) circularDependencies() []ir.Violation {
	var out []ir.Violation
	for _, cycle := range p.g.FindCyclesLimit(p.opts.MaxCycles) {
		distinct := make(map[ir.Layer]bool)
		for _, id := range cycle {
			distinct[p.layers[id]] = true
		}
		sev := ir.SeverityMedium
		if len(distinct) > 1 {
			sev = ir.SeverityHigh
		}
		path := append(append([]string(nil), cycle...), cycle[0])
		v := p.violation(ir.ViolationCircular, sev, cycle[0], cycle[len(cycle)-1], path)
		v.Title = fmt.Sprintf("Circular dependency detected (%d modules)", len(cycle))
		v.Description = "Circular dependency chain: " + strings.Join(path, " → ")
		v.RuleName = rules.RuleAcyclicDependencies
		v.PatternBroken = PatternAcyclic
		out = append(out, v)
	}
	return out
}

func (p *pass) legacyAccess() []ir.Violation {
	var out []ir.Violation
	for _, target := range p.idsInLayer(ir.LayerLegacy) {
		for _, src := range p.g.Predecessors(target) {
			sl := p.layers[src]
			if sl == ir.LayerGateway || sl == ir.LayerAdapter {
				continue
			}
			v := p.violation(ir.ViolationLegacyAccess, ir.SeverityCritical, src, target, []string{src, target})
			v.Title = "Direct legacy system access"
			v.Description = fmt.Sprintf("Module %q from %s layer directly accesses legacy system %q", src, sl, target)
			v.RuleName = rules.RuleLegacyIsolation
			v.PatternBroken = PatternLegacy
			out = append(out, v)
		}
	}
	return out
}

func (p *pass) gatewayBypass() []ir.Violation {
	var out []ir.Violation
	for _, src := range p.idsInLayer(ir.LayerPresentation) {
		for _, target := range p.g.Successors(src) {
			tl := p.layers[target]
			if tl == ir.LayerGateway || tl == ir.LayerPresentation {
				continue
			}
			v := p.violation(ir.ViolationBypassGateway, ir.SeverityHigh, src, target, []string{src, target})
			v.Title = "Gateway bypass detected"
			v.Description = fmt.Sprintf("Presentation module %q bypasses gateway and directly accesses %q", src, target)
			v.RuleName = rules.RuleGatewayEnforcement
			v.PatternBroken = PatternGateway
			out = append(out, v)
		}
	}
	return out
}

// idsInLayer returns the graph nodes assigned to layer, sorted.
func (p *pass) idsInLayer(layer ir.Layer) []string {
	var ids []string
	for _, id := range p.g.IDs() {
		if p.layers[id] == layer {
			ids = append(ids, id)
		}
	}
	return ids
}
