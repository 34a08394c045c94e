// Package qualitygate evaluates architecture drift against CI thresholds.
package qualitygate

import (
	"context"
	"fmt"
	"time"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/observability"
)

// GateStatus represents the result of a quality gate check.
type GateStatus string

const (
	GatePassed  GateStatus = "passed"
	GateFailed  GateStatus = "failed"
	GateSkipped GateStatus = "skipped"
	GateWarning GateStatus = "warning"
)

// GateSeverity indicates how critical a gate failure is.
type GateSeverity string

const (
	SeverityCritical GateSeverity = "critical" // Pipeline must abort
	SeverityRequired GateSeverity = "required" // Fails the check
	SeverityAdvisory GateSeverity = "advisory" // Warning only, does not block
)

// GateResult captures the outcome of a single gate evaluation.
type GateResult struct {
	Name        string        `json:"name"`
	Status      GateStatus    `json:"status"`
	Severity    GateSeverity  `json:"severity"`
	Observed    int           `json:"observed"`
	Limit       int           `json:"limit"`
	Message     string        `json:"message"`
	Details     []string      `json:"details,omitempty"`
	Duration    time.Duration `json:"duration"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// Gate is the interface all quality gates must implement.
type Gate interface {
	Name() string
	Severity() GateSeverity
	Evaluate(ec *EvalContext) (*GateResult, error)
}

// EvalContext provides data for gate evaluation.
type EvalContext struct {
	Violations []ir.Violation // Violations after the severity threshold
	Cycles     int            // Elementary cycles in the module graph
	Acyclic    bool           // Graph has no cycles
	Modules    int            // Modules analyzed
	Warnings   int            // Extraction warnings
	Canceled   bool           // Scan stopped before completion
}

// Count returns the number of violations matching the predicate.
func (ec *EvalContext) Count(match func(ir.Violation) bool) (int, []string) {
	n := 0
	var details []string
	for _, v := range ec.Violations {
		if match(v) {
			n++
			details = append(details, v.Title)
		}
	}
	return n, details
}

// PipelineResult captures the complete gate pipeline evaluation.
type PipelineResult struct {
	Status       GateStatus    `json:"status"` // Overall: passed if all blocking gates pass
	Gates        []GateResult  `json:"gates"`
	PassedCount  int           `json:"passed_count"`
	FailedCount  int           `json:"failed_count"`
	SkippedCount int           `json:"skipped_count"`
	WarningCount int           `json:"warning_count"`
	Duration     time.Duration `json:"duration"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
	Summary      string        `json:"summary"`
}

// Passed reports whether no blocking gate failed.
func (r *PipelineResult) Passed() bool {
	return r.Status != GateFailed
}

// Pipeline orchestrates multiple quality gates in sequence.
type Pipeline struct {
	gates []Gate
}

// NewPipeline creates a new quality gate pipeline.
func NewPipeline(gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates}
}

// AddGate appends a gate to the pipeline.
func (p *Pipeline) AddGate(g Gate) {
	p.gates = append(p.gates, g)
}

// Gates returns the configured gates in evaluation order.
func (p *Pipeline) Gates() []Gate {
	return p.gates
}

// Run evaluates all gates against the provided context.
// A failing advisory gate is reported as a warning.
func (p *Pipeline) Run(ctx context.Context, ec *EvalContext) *PipelineResult {
	start := time.Now()
	result := &PipelineResult{
		Status:      GatePassed,
		EvaluatedAt: start,
	}

	aborted := false

	for _, gate := range p.gates {
		if aborted {
			result.Gates = append(result.Gates, GateResult{
				Name:        gate.Name(),
				Status:      GateSkipped,
				Severity:    gate.Severity(),
				Message:     "Skipped due to critical gate failure",
				EvaluatedAt: time.Now(),
			})
			result.SkippedCount++
			continue
		}

		_, span := observability.StartGateSpan(ctx, gate.Name())
		gateStart := time.Now()
		gr, err := gate.Evaluate(ec)
		if err != nil {
			observability.RecordError(span, err)
			gr = &GateResult{
				Name:     gate.Name(),
				Status:   GateFailed,
				Severity: gate.Severity(),
				Message:  fmt.Sprintf("Gate evaluation error: %v", err),
			}
		}
		if gr.Status == GateFailed && gr.Severity == SeverityAdvisory {
			gr.Status = GateWarning
		}
		gr.Duration = time.Since(gateStart)
		gr.EvaluatedAt = gateStart
		observability.RecordGateResult(span, gr.Status != GateFailed, gr.Message)
		span.End()

		result.Gates = append(result.Gates, *gr)

		switch gr.Status {
		case GatePassed:
			result.PassedCount++
		case GateFailed:
			result.FailedCount++
			result.Status = GateFailed
			if gr.Severity == SeverityCritical {
				aborted = true
			}
		case GateWarning:
			result.WarningCount++
		case GateSkipped:
			result.SkippedCount++
		}
	}

	result.Duration = time.Since(start)
	result.Summary = formatSummary(result)

	return result
}

func formatSummary(r *PipelineResult) string {
	return fmt.Sprintf("Quality Gates: %d passed, %d failed, %d warnings, %d skipped [%s]",
		r.PassedCount, r.FailedCount, r.WarningCount, r.SkippedCount, r.Status)
}
