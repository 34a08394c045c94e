package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{Snapshot: SnapshotConfig{Dir: "x"}}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if warnings := Default().Validate(); len(warnings) != 0 {
		t.Errorf("default config should have no warnings, got %v", warnings)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"severity", func(c *Config) { c.Analysis.SeverityThreshold = "severe" }, "severity_threshold"},
		{"workers", func(c *Config) { c.Analysis.Workers = -2 }, "workers"},
		{"max_cycles", func(c *Config) { c.Analysis.MaxCycles = -1 }, "max_cycles"},
		{"timeout", func(c *Config) { c.Analysis.Timeout = -time.Second }, "timeout"},
		{"exclude", func(c *Config) { c.Analysis.Exclude = []string{"a/b"} }, "exclude"},
		{"sample_rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
		{"graph", func(c *Config) { c.Graph.URI = "bolt://localhost:7687" }, "password"},
		{"log_level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log_format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if w := cfg.Validate(); !hasWarning(w, tt.want) {
				t.Errorf("expected warning about %s, got %v", tt.want, w)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Analysis.Threshold() != ir.SeverityMedium {
		t.Errorf("threshold = %v, want medium", cfg.Analysis.Threshold())
	}
	opts := cfg.Analysis.DriftOptions()
	if !opts.LayerViolations || !opts.CircularDependencies || !opts.LegacyAccess || !opts.GatewayBypass {
		t.Errorf("all detection passes should be enabled: %+v", opts)
	}
	if cfg.Analysis.Timeout != 10*time.Minute {
		t.Errorf("timeout = %v, want 10m", cfg.Analysis.Timeout)
	}
	if cfg.Temporal.TaskQueue != "driftwatch" {
		t.Errorf("task queue = %q", cfg.Temporal.TaskQueue)
	}
	if cfg.Graph.Enabled() {
		t.Error("graph should be disabled without a uri")
	}
	if !cfg.Gates.Enabled || cfg.Gates.MaxCritical != 0 || cfg.Gates.MaxHigh != -1 {
		t.Errorf("unexpected gate defaults: %+v", cfg.Gates)
	}
}

func TestThresholdFallback(t *testing.T) {
	tests := []struct {
		in   string
		want ir.Severity
	}{
		{"", ir.SeverityMedium},
		{"nonsense", ir.SeverityMedium},
		{"HIGH", ir.SeverityHigh},
		{"low", ir.SeverityLow},
	}
	for _, tt := range tests {
		a := AnalysisConfig{SeverityThreshold: tt.in}
		if got := a.Threshold(); got != tt.want {
			t.Errorf("Threshold(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driftwatch.yaml")
	content := `
analysis:
  exclude: [generated, fixtures]
  severity_threshold: high
  detect_gateway_bypass: false
  timeout: 30s
gates:
  max_total: 5
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Analysis.Exclude) != 2 || cfg.Analysis.Exclude[0] != "generated" {
		t.Errorf("exclude = %v", cfg.Analysis.Exclude)
	}
	if cfg.Analysis.Threshold() != ir.SeverityHigh {
		t.Errorf("threshold = %v, want high", cfg.Analysis.Threshold())
	}
	if cfg.Analysis.DetectGatewayBypass {
		t.Error("gateway bypass should be disabled by file")
	}
	if !cfg.Analysis.DetectLegacyAccess {
		t.Error("legacy access should keep its default")
	}
	if cfg.Analysis.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Analysis.Timeout)
	}
	if cfg.Gates.MaxTotal != 5 {
		t.Errorf("max_total = %d, want 5", cfg.Gates.MaxTotal)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driftwatch.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DRIFTWATCH_LOG_LEVEL", "error")
	t.Setenv("DRIFTWATCH_TEMPORAL_TASK_QUEUE", "ci")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log level = %q, want env override", cfg.Log.Level)
	}
	if cfg.Temporal.TaskQueue != "ci" {
		t.Errorf("task queue = %q, want env override", cfg.Temporal.TaskQueue)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.Logger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	LogConfig{Level: "debug", Format: "json"}.Logger(&buf).Debug("shown", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("expected json record, got %q", buf.String())
	}
}
