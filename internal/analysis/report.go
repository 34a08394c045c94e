package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/metrics"
	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
	"github.com/efebarandurmaz/driftwatch/internal/rules"
)

// Report is everything one analysis produces.
type Report struct {
	Root         string                   `json:"root"`
	Warnings     []ir.Warning             `json:"warnings"`
	Graph        *depgraph.Snapshot       `json:"graph"`
	Architecture ir.ArchitectureConfig    `json:"architecture"`
	Rules        []rules.Rule             `json:"rules"`
	Violations   []ir.Violation           `json:"violations"`
	Detected     int                      `json:"detected"` // before the severity threshold
	Threshold    ir.Severity              `json:"threshold"`
	BySeverity   map[ir.Severity]int      `json:"by_severity"`
	ByType       map[ir.ViolationType]int `json:"by_type"`
	Stats        depgraph.Stats           `json:"stats"`
	Cycles       [][]string               `json:"cycles"`
	Canceled     bool                     `json:"canceled"`
	Metrics      *metrics.RunMetrics      `json:"metrics,omitempty"`
}

// GateContext converts the report into quality gate input.
func (r *Report) GateContext() *qualitygate.EvalContext {
	return &qualitygate.EvalContext{
		Violations: r.Violations,
		Cycles:     len(r.Cycles),
		Acyclic:    r.Stats.IsDAG,
		Modules:    r.Stats.Nodes,
		Warnings:   len(r.Warnings),
		Canceled:   r.Canceled,
	}
}

// JSON returns the report as formatted JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText renders a human-readable report, most severe violations first.
func (r *Report) WriteText(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "Root: %s\n", r.Root)
	if r.Canceled {
		fmt.Fprintln(w, "Scan canceled: results are partial")
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, depgraph.FormatStats(r.Stats, r.Cycles))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Layers:")
	for _, l := range r.Architecture.Layers {
		level, _ := r.Architecture.Hierarchy.Level(l)
		allowed := make([]string, 0, len(r.Architecture.AllowedDependencies[l]))
		for _, t := range r.Architecture.AllowedDependencies[l] {
			allowed = append(allowed, string(t))
		}
		fmt.Fprintf(w, "  %-14s level %d  → %s\n", l, level, strings.Join(allowed, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Violations (%d shown at %s or above, %d detected):\n", len(r.Violations), r.Threshold, r.Detected)
	for i := len(ir.Severities) - 1; i >= 0; i-- {
		sev := ir.Severities[i]
		for _, v := range r.Violations {
			if v.Severity != sev {
				continue
			}
			fmt.Fprintf(w, "  [%-8s] %s\n", strings.ToUpper(string(sev)), v.Title)
			fmt.Fprintf(w, "             %s\n", v.Description)
			if verbose {
				fmt.Fprintf(w, "             rule: %s\n", v.RuleName)
				fmt.Fprintf(w, "             path: %s\n", strings.Join(v.DependencyPath, " → "))
			}
		}
	}
	if len(r.Violations) == 0 {
		fmt.Fprintln(w, "  none")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(r.Warnings))
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", wn.Path, wn.Message)
		}
	}
}
