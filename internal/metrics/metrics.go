// Package metrics collects timing and volume statistics for an analysis run.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// RunMetrics collects statistics for a full analysis run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Root       string         `json:"root"`
	Extraction ExtractMetrics `json:"extraction"`
	Drift      DriftMetrics   `json:"drift"`
	Stages     []StageMetrics `json:"stages"`
	Canceled   bool           `json:"canceled,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

type ExtractMetrics struct {
	Files     int            `json:"files"`
	Modules   int            `json:"modules"`
	Edges     int            `json:"edges"`
	Warnings  int            `json:"warnings"`
	Languages map[string]int `json:"languages"`
}

type DriftMetrics struct {
	Cycles     int                 `json:"cycles"`
	Violations int                 `json:"violations"`
	BySeverity map[ir.Severity]int `json:"by_severity"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Items    int           `json:"items"`
}

// New starts tracking an analysis run.
func New(root string) *RunMetrics {
	return &RunMetrics{StartedAt: time.Now(), Root: root}
}

// CollectExtraction records module and edge volume per language.
func (m *RunMetrics) CollectExtraction(modules []*ir.ModuleRecord, edges, warnings int) {
	m.Extraction.Files = len(modules)
	m.Extraction.Modules = len(modules)
	m.Extraction.Edges = edges
	m.Extraction.Warnings = warnings
	m.Extraction.Languages = make(map[string]int)
	for _, mod := range modules {
		m.Extraction.Languages[mod.Language]++
	}
}

// CollectDrift records cycle and violation volume.
func (m *RunMetrics) CollectDrift(cycles int, violations []ir.Violation) {
	m.Drift.Cycles = cycles
	m.Drift.Violations = len(violations)
	m.Drift.BySeverity = make(map[ir.Severity]int, len(ir.Severities))
	for _, s := range ir.Severities {
		m.Drift.BySeverity[s] = 0
	}
	for _, v := range violations {
		m.Drift.BySeverity[v.Severity]++
	}
}

// AddStage records a single stage's timing and output size.
func (m *RunMetrics) AddStage(name string, d time.Duration, items int) {
	m.Stages = append(m.Stages, StageMetrics{
		Name:     name,
		Duration: d,
		Items:    items,
	})
}

// Stage returns a func that records the stage when called.
func (m *RunMetrics) Stage(name string) func(items int) {
	start := time.Now()
	return func(items int) {
		m.AddStage(name, time.Since(start), items)
	}
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(canceled bool, errs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Canceled = canceled
	m.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║        DRIFTWATCH RUN REPORT         ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "║ Canceled:    %-23t║\n", m.Canceled)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ EXTRACTION (%s)\n", m.Root)
	fmt.Fprintf(w, "║   Modules:     %d\n", m.Extraction.Modules)
	fmt.Fprintf(w, "║   Edges:       %d\n", m.Extraction.Edges)
	fmt.Fprintf(w, "║   Warnings:    %d\n", m.Extraction.Warnings)
	for _, lang := range sortedLanguages(m.Extraction.Languages) {
		fmt.Fprintf(w, "║   %-12s %d\n", lang+":", m.Extraction.Languages[lang])
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ DRIFT\n")
	fmt.Fprintf(w, "║   Cycles:      %d\n", m.Drift.Cycles)
	fmt.Fprintf(w, "║   Violations:  %d\n", m.Drift.Violations)
	for i := len(ir.Severities) - 1; i >= 0; i-- {
		s := ir.Severities[i]
		fmt.Fprintf(w, "║   %-12s %d\n", string(s)+":", m.Drift.BySeverity[s])
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		fmt.Fprintf(w, "║   %-14s %8s  %d items\n", s.Name, s.Duration.Round(time.Millisecond), s.Items)
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range m.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func sortedLanguages(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
