package qualitygate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

func violations(defs ...string) []ir.Violation {
	// each def is "<severity>/<type>"
	var out []ir.Violation
	for i, s := range defs {
		parts := strings.SplitN(s, "/", 2)
		out = append(out, ir.Violation{
			Severity: ir.Severity(parts[0]),
			Type:     ir.ViolationType(parts[1]),
			Title:    "violation " + string(rune('a'+i)),
		})
	}
	return out
}

func TestCountGates(t *testing.T) {
	vs := violations(
		"critical/legacy_access",
		"critical/layer_violation",
		"high/layer_violation",
		"medium/circular_dependency",
	)

	tests := []struct {
		name         string
		gate         *CountGate
		wantStatus   GateStatus
		wantObserved int
	}{
		{"critical over limit", NewMaxCriticalGate(0, SeverityRequired), GateFailed, 2},
		{"critical at limit", NewMaxCriticalGate(2, SeverityRequired), GatePassed, 2},
		{"high within limit", NewMaxHighGate(1, SeverityRequired), GatePassed, 1},
		{"total over limit", NewMaxTotalGate(3, SeverityRequired), GateFailed, 4},
		{"legacy over limit", NewLegacyAccessGate(0, SeverityRequired), GateFailed, 1},
		{"disabled", NewMaxTotalGate(-1, SeverityRequired), GateSkipped, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.gate.Evaluate(&EvalContext{Violations: vs})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v", result.Status, tt.wantStatus)
			}
			if result.Observed != tt.wantObserved {
				t.Errorf("got observed %d, want %d", result.Observed, tt.wantObserved)
			}
			if result.Status == GateFailed && len(result.Details) != tt.wantObserved {
				t.Errorf("got %d details, want %d", len(result.Details), tt.wantObserved)
			}
		})
	}
}

func TestAcyclicGate(t *testing.T) {
	gate := NewAcyclicGate(SeverityRequired)

	r, _ := gate.Evaluate(&EvalContext{Acyclic: true})
	if r.Status != GatePassed {
		t.Errorf("acyclic graph: got %v, want passed", r.Status)
	}

	r, _ = gate.Evaluate(&EvalContext{Acyclic: false, Cycles: 3})
	if r.Status != GateFailed {
		t.Errorf("cyclic graph: got %v, want failed", r.Status)
	}
	if !strings.Contains(r.Message, "3 cycles") {
		t.Errorf("message should mention cycle count: %q", r.Message)
	}
}

func TestCompleteScanGate(t *testing.T) {
	gate := NewCompleteScanGate(SeverityCritical)

	r, _ := gate.Evaluate(&EvalContext{Modules: 10})
	if r.Status != GatePassed {
		t.Errorf("complete scan: got %v, want passed", r.Status)
	}
	r, _ = gate.Evaluate(&EvalContext{Modules: 4, Canceled: true})
	if r.Status != GateFailed {
		t.Errorf("canceled scan: got %v, want failed", r.Status)
	}
}

func TestPipelineAllPassing(t *testing.T) {
	p := NewPipeline(
		NewCompleteScanGate(SeverityCritical),
		NewMaxCriticalGate(0, SeverityRequired),
		NewAcyclicGate(SeverityRequired),
	)
	result := p.Run(context.Background(), &EvalContext{Acyclic: true, Modules: 3})

	if result.Status != GatePassed || !result.Passed() {
		t.Errorf("got status %v, want passed", result.Status)
	}
	if result.PassedCount != 3 {
		t.Errorf("got %d passed, want 3", result.PassedCount)
	}
	if !strings.Contains(result.Summary, "3 passed") {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestPipelineCriticalGateFailure(t *testing.T) {
	p := NewPipeline(
		NewCompleteScanGate(SeverityCritical),
		NewMaxCriticalGate(0, SeverityRequired),
		NewMaxTotalGate(0, SeverityRequired),
	)
	result := p.Run(context.Background(), &EvalContext{Canceled: true})

	if result.Status != GateFailed {
		t.Errorf("got status %v, want failed", result.Status)
	}
	if result.FailedCount != 1 || result.SkippedCount != 2 {
		t.Errorf("got failed=%d skipped=%d, want 1 and 2", result.FailedCount, result.SkippedCount)
	}
	for _, gr := range result.Gates[1:] {
		if gr.Status != GateSkipped {
			t.Errorf("gate %s should be skipped, got %v", gr.Name, gr.Status)
		}
	}
}

func TestPipelineRequiredGateFailure(t *testing.T) {
	p := NewPipeline(
		NewMaxCriticalGate(0, SeverityRequired),
		NewAcyclicGate(SeverityRequired),
	)
	result := p.Run(context.Background(), &EvalContext{
		Violations: violations("critical/legacy_access"),
		Acyclic:    true,
	})

	if result.Status != GateFailed {
		t.Errorf("got status %v, want failed", result.Status)
	}
	// Required failures do not abort the pipeline
	if result.PassedCount != 1 || result.FailedCount != 1 {
		t.Errorf("got passed=%d failed=%d, want 1 and 1", result.PassedCount, result.FailedCount)
	}
}

func TestPipelineAdvisoryWarningOnly(t *testing.T) {
	p := NewPipeline(
		NewMaxCriticalGate(0, SeverityRequired),
		NewMaxTotalGate(0, SeverityAdvisory),
	)
	result := p.Run(context.Background(), &EvalContext{
		Violations: violations("low/layer_violation"),
	})

	if result.Status != GatePassed {
		t.Errorf("advisory failure should not fail the pipeline, got %v", result.Status)
	}
	if result.WarningCount != 1 {
		t.Errorf("got %d warnings, want 1", result.WarningCount)
	}
	if result.Gates[1].Status != GateWarning {
		t.Errorf("advisory gate status = %v, want warning", result.Gates[1].Status)
	}
}

type failingGate struct{}

func (failingGate) Name() string           { return "broken" }
func (failingGate) Severity() GateSeverity { return SeverityRequired }
func (failingGate) Evaluate(*EvalContext) (*GateResult, error) {
	return nil, errors.New("boom")
}

func TestPipelineGateError(t *testing.T) {
	result := NewPipeline(failingGate{}).Run(context.Background(), &EvalContext{})

	if result.Status != GateFailed {
		t.Errorf("got status %v, want failed", result.Status)
	}
	if !strings.Contains(result.Gates[0].Message, "boom") {
		t.Errorf("message should carry the error: %q", result.Gates[0].Message)
	}
}

func TestPipelineEmptyGates(t *testing.T) {
	result := NewPipeline().Run(context.Background(), &EvalContext{})
	if result.Status != GatePassed {
		t.Errorf("empty pipeline should pass, got %v", result.Status)
	}
	if len(result.Gates) != 0 {
		t.Errorf("got %d gate results, want 0", len(result.Gates))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("gates should be enabled by default")
	}
	if cfg.MaxCritical != 0 {
		t.Errorf("MaxCritical = %d, want 0", cfg.MaxCritical)
	}
	if cfg.MaxHigh >= 0 || cfg.MaxTotal >= 0 {
		t.Errorf("high and total limits should be disabled, got %d and %d", cfg.MaxHigh, cfg.MaxTotal)
	}
	if cfg.RequireAcyclic {
		t.Error("acyclic requirement should be off by default")
	}
}

func TestBuildPipeline(t *testing.T) {
	tests := []struct {
		name string
		cfg  *GateConfig
		want []string
	}{
		{
			name: "defaults",
			cfg:  nil,
			want: []string{GateCompleteScan, GateMaxCritical, GateMaxLegacyAccess},
		},
		{
			name: "everything",
			cfg: &GateConfig{
				Enabled:             true,
				RequireCompleteScan: true,
				MaxCritical:         0,
				MaxHigh:             5,
				MaxTotal:            10,
				RequireAcyclic:      true,
				MaxLegacyAccess:     0,
			},
			want: []string{GateCompleteScan, GateMaxCritical, GateMaxHigh, GateMaxTotal, GateRequireAcyclic, GateMaxLegacyAccess},
		},
		{
			name: "disabled",
			cfg:  &GateConfig{Enabled: false, MaxCritical: 0},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, g := range BuildPipeline(tt.cfg).Gates() {
				got = append(got, g.Name())
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got gates %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]GateSeverity{
		"critical": SeverityCritical,
		"required": SeverityRequired,
		"advisory": SeverityAdvisory,
		"":         SeverityRequired,
		"bogus":    SeverityRequired,
	}
	for in, want := range tests {
		if got := parseSeverity(in); got != want {
			t.Errorf("parseSeverity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatReport(t *testing.T) {
	p := NewPipeline(
		NewMaxCriticalGate(0, SeverityRequired),
		NewMaxTotalGate(0, SeverityAdvisory),
	)
	result := p.Run(context.Background(), &EvalContext{
		Violations: violations("critical/legacy_access"),
	})

	report := FormatReport(result)
	for _, want := range []string{"Drift Gate Report", "max_critical", "[REQUIRED]", "[ADVISORY]", "violation a", "FAILED"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestGateInterfaceCompliance(t *testing.T) {
	var _ Gate = (*CountGate)(nil)
	var _ Gate = (*AcyclicGate)(nil)
	var _ Gate = (*CompleteScanGate)(nil)
}
