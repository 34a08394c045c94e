package qualitygate

import (
	"fmt"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// CountGate fails when more than Max violations match.
type CountGate struct {
	Max      int
	name     string
	what     string
	match    func(ir.Violation) bool
	severity GateSeverity
}

// NewMaxCriticalGate limits critical violations.
func NewMaxCriticalGate(max int, severity GateSeverity) *CountGate {
	return &CountGate{
		Max:      max,
		name:     GateMaxCritical,
		what:     "critical violations",
		match:    func(v ir.Violation) bool { return v.Severity == ir.SeverityCritical },
		severity: severity,
	}
}

// NewMaxHighGate limits high violations.
func NewMaxHighGate(max int, severity GateSeverity) *CountGate {
	return &CountGate{
		Max:      max,
		name:     GateMaxHigh,
		what:     "high violations",
		match:    func(v ir.Violation) bool { return v.Severity == ir.SeverityHigh },
		severity: severity,
	}
}

// NewMaxTotalGate limits all reported violations.
func NewMaxTotalGate(max int, severity GateSeverity) *CountGate {
	return &CountGate{
		Max:      max,
		name:     GateMaxTotal,
		what:     "violations",
		match:    func(ir.Violation) bool { return true },
		severity: severity,
	}
}

// NewLegacyAccessGate limits direct legacy access.
func NewLegacyAccessGate(max int, severity GateSeverity) *CountGate {
	return &CountGate{
		Max:      max,
		name:     GateMaxLegacyAccess,
		what:     "legacy access violations",
		match:    func(v ir.Violation) bool { return v.Type == ir.ViolationLegacyAccess },
		severity: severity,
	}
}

func (g *CountGate) Name() string           { return g.name }
func (g *CountGate) Severity() GateSeverity { return g.severity }
func (g *CountGate) Evaluate(ec *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
		Limit:    g.Max,
	}
	if g.Max < 0 {
		r.Status = GateSkipped
		r.Message = "No limit configured"
		return r, nil
	}

	n, details := ec.Count(g.match)
	r.Observed = n
	if n <= g.Max {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%d %s within limit %d", n, g.what, g.Max)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d %s exceed limit %d", n, g.what, g.Max)
		r.Details = details
	}
	return r, nil
}

// AcyclicGate fails when the module graph contains a cycle.
type AcyclicGate struct {
	severity GateSeverity
}

func NewAcyclicGate(severity GateSeverity) *AcyclicGate {
	return &AcyclicGate{severity: severity}
}

func (g *AcyclicGate) Name() string           { return GateRequireAcyclic }
func (g *AcyclicGate) Severity() GateSeverity { return g.severity }
func (g *AcyclicGate) Evaluate(ec *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
		Observed: ec.Cycles,
	}
	if ec.Acyclic {
		r.Status = GatePassed
		r.Message = "Dependency graph is acyclic"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Dependency graph has %d cycles", ec.Cycles)
	}
	return r, nil
}

// CompleteScanGate fails when the scan was canceled before finishing.
type CompleteScanGate struct {
	severity GateSeverity
}

func NewCompleteScanGate(severity GateSeverity) *CompleteScanGate {
	return &CompleteScanGate{severity: severity}
}

func (g *CompleteScanGate) Name() string           { return GateCompleteScan }
func (g *CompleteScanGate) Severity() GateSeverity { return g.severity }
func (g *CompleteScanGate) Evaluate(ec *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
		Observed: ec.Modules,
	}
	if ec.Canceled {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Scan canceled after %d modules; results are partial", ec.Modules)
	} else {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Scanned %d modules", ec.Modules)
	}
	return r, nil
}
