package qualitygate

import (
	"fmt"
	"strings"
)

// Gate names.
const (
	GateCompleteScan    = "complete_scan"
	GateMaxCritical     = "max_critical"
	GateMaxHigh         = "max_high"
	GateMaxTotal        = "max_total"
	GateRequireAcyclic  = "require_acyclic"
	GateMaxLegacyAccess = "max_legacy_access"
)

// GateConfig defines the configuration for quality gates.
// A negative limit disables the corresponding gate.
type GateConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	MaxCritical      int    `mapstructure:"max_critical" json:"max_critical"`
	CriticalSeverity string `mapstructure:"critical_severity" json:"critical_severity"`

	MaxHigh      int    `mapstructure:"max_high" json:"max_high"`
	HighSeverity string `mapstructure:"high_severity" json:"high_severity"`

	MaxTotal      int    `mapstructure:"max_total" json:"max_total"`
	TotalSeverity string `mapstructure:"total_severity" json:"total_severity"`

	RequireAcyclic  bool   `mapstructure:"require_acyclic" json:"require_acyclic"`
	AcyclicSeverity string `mapstructure:"acyclic_severity" json:"acyclic_severity"`

	MaxLegacyAccess int    `mapstructure:"max_legacy_access" json:"max_legacy_access"`
	LegacySeverity  string `mapstructure:"legacy_severity" json:"legacy_severity"`

	RequireCompleteScan bool `mapstructure:"require_complete_scan" json:"require_complete_scan"`
}

// DefaultConfig returns sensible default gate configuration.
func DefaultConfig() *GateConfig {
	return &GateConfig{
		Enabled:             true,
		MaxCritical:         0,
		CriticalSeverity:    "required",
		MaxHigh:             -1, // disabled by default
		HighSeverity:        "advisory",
		MaxTotal:            -1,
		TotalSeverity:       "advisory",
		RequireAcyclic:      false,
		AcyclicSeverity:     "advisory",
		MaxLegacyAccess:     0,
		LegacySeverity:      "required",
		RequireCompleteScan: true,
	}
}

// parseSeverity converts a string to GateSeverity.
func parseSeverity(s string) GateSeverity {
	switch s {
	case "critical":
		return SeverityCritical
	case "required":
		return SeverityRequired
	case "advisory":
		return SeverityAdvisory
	default:
		return SeverityRequired
	}
}

// BuildPipeline constructs a gate pipeline from configuration.
// A disabled configuration yields an empty pipeline.
func BuildPipeline(cfg *GateConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := NewPipeline()
	if !cfg.Enabled {
		return p
	}

	if cfg.RequireCompleteScan {
		p.AddGate(NewCompleteScanGate(SeverityCritical))
	}

	if cfg.MaxCritical >= 0 {
		p.AddGate(NewMaxCriticalGate(cfg.MaxCritical, parseSeverity(cfg.CriticalSeverity)))
	}

	if cfg.MaxHigh >= 0 {
		p.AddGate(NewMaxHighGate(cfg.MaxHigh, parseSeverity(cfg.HighSeverity)))
	}

	if cfg.MaxTotal >= 0 {
		p.AddGate(NewMaxTotalGate(cfg.MaxTotal, parseSeverity(cfg.TotalSeverity)))
	}

	if cfg.RequireAcyclic {
		p.AddGate(NewAcyclicGate(parseSeverity(cfg.AcyclicSeverity)))
	}

	if cfg.MaxLegacyAccess >= 0 {
		p.AddGate(NewLegacyAccessGate(cfg.MaxLegacyAccess, parseSeverity(cfg.LegacySeverity)))
	}

	return p
}

// FormatReport returns a human-readable quality gate report.
func FormatReport(result *PipelineResult) string {
	var s strings.Builder
	s.WriteString("╔══════════════════════════════════════════╗\n")
	s.WriteString("║        Drift Gate Report                 ║\n")
	s.WriteString("╠══════════════════════════════════════════╣\n")

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}

		severity := ""
		switch gr.Severity {
		case SeverityCritical:
			severity = "[CRITICAL]"
		case SeverityRequired:
			severity = "[REQUIRED]"
		case SeverityAdvisory:
			severity = "[ADVISORY]"
		}

		fmt.Fprintf(&s, "║ %s %-18s %-10s %s\n", icon, gr.Name, severity, gr.Message)
		for _, d := range gr.Details {
			fmt.Fprintf(&s, "║   → %s\n", d)
		}
	}

	s.WriteString("╠══════════════════════════════════════════╣\n")
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	fmt.Fprintf(&s, "║ Result: %s (%s)\n", status, result.Summary)
	s.WriteString("╚══════════════════════════════════════════╝\n")

	return s.String()
}
