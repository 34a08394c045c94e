package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/driftwatch/internal/drift"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig         `mapstructure:"analysis"`
	Graph    GraphConfig            `mapstructure:"graph"`
	Temporal TemporalConfig         `mapstructure:"temporal"`
	Tracing  TracingConfig          `mapstructure:"tracing"`
	Snapshot SnapshotConfig         `mapstructure:"snapshot"`
	Gates    qualitygate.GateConfig `mapstructure:"gates"`
	Log      LogConfig              `mapstructure:"log"`
}

type AnalysisConfig struct {
	Exclude           []string      `mapstructure:"exclude"`
	IncludeTests      bool          `mapstructure:"include_tests"`
	Workers           int           `mapstructure:"workers"`
	MaxFileSize       int64         `mapstructure:"max_file_size"`
	MaxCycles         int           `mapstructure:"max_cycles"`
	Timeout           time.Duration `mapstructure:"timeout"`
	SeverityThreshold string        `mapstructure:"severity_threshold"`

	DetectLayerViolations      bool `mapstructure:"detect_layer_violations"`
	DetectCircularDependencies bool `mapstructure:"detect_circular_dependencies"`
	DetectLegacyAccess         bool `mapstructure:"detect_legacy_access"`
	DetectGatewayBypass        bool `mapstructure:"detect_gateway_bypass"`
}

// Threshold returns the parsed severity threshold, falling back to medium.
func (a AnalysisConfig) Threshold() ir.Severity {
	s, err := ir.ParseSeverity(a.SeverityThreshold)
	if err != nil {
		return ir.SeverityMedium
	}
	return s
}

// DriftOptions maps the detection toggles onto detector options.
func (a AnalysisConfig) DriftOptions() drift.Options {
	return drift.Options{
		LayerViolations:      a.DetectLayerViolations,
		CircularDependencies: a.DetectCircularDependencies,
		LegacyAccess:         a.DetectLegacyAccess,
		GatewayBypass:        a.DetectGatewayBypass,
		MaxCycles:            a.MaxCycles,
	}
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Enabled reports whether a graph database is configured.
func (g GraphConfig) Enabled() bool { return g.URI != "" }

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
}

type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Logger builds a slog logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling defaults alone cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.exclude", []string{})
	v.SetDefault("analysis.include_tests", false)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.max_file_size", 2<<20)
	v.SetDefault("analysis.max_cycles", 10000)
	v.SetDefault("analysis.timeout", 10*time.Minute)
	v.SetDefault("analysis.severity_threshold", string(ir.SeverityMedium))
	v.SetDefault("analysis.detect_layer_violations", true)
	v.SetDefault("analysis.detect_circular_dependencies", true)
	v.SetDefault("analysis.detect_legacy_access", true)
	v.SetDefault("analysis.detect_gateway_bypass", true)

	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.database", "")

	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "driftwatch")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "driftwatch")
	v.SetDefault("tracing.environment", "development")

	v.SetDefault("snapshot.dir", ".driftwatch/snapshots")

	gates := qualitygate.DefaultConfig()
	v.SetDefault("gates.enabled", gates.Enabled)
	v.SetDefault("gates.max_critical", gates.MaxCritical)
	v.SetDefault("gates.critical_severity", gates.CriticalSeverity)
	v.SetDefault("gates.max_high", gates.MaxHigh)
	v.SetDefault("gates.high_severity", gates.HighSeverity)
	v.SetDefault("gates.max_total", gates.MaxTotal)
	v.SetDefault("gates.total_severity", gates.TotalSeverity)
	v.SetDefault("gates.require_acyclic", gates.RequireAcyclic)
	v.SetDefault("gates.acyclic_severity", gates.AcyclicSeverity)
	v.SetDefault("gates.max_legacy_access", gates.MaxLegacyAccess)
	v.SetDefault("gates.legacy_severity", gates.LegacySeverity)
	v.SetDefault("gates.require_complete_scan", gates.RequireCompleteScan)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Analysis.SeverityThreshold != "" {
		if _, err := ir.ParseSeverity(c.Analysis.SeverityThreshold); err != nil {
			warnings = append(warnings, fmt.Sprintf("analysis.severity_threshold %q is not a severity, using medium", c.Analysis.SeverityThreshold))
		}
	}

	if c.Analysis.Workers < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis.workers %d is negative", c.Analysis.Workers))
	}

	if c.Analysis.MaxCycles < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis.max_cycles %d is negative", c.Analysis.MaxCycles))
	}

	if c.Analysis.Timeout < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis.timeout %s is negative", c.Analysis.Timeout))
	}

	for _, name := range c.Analysis.Exclude {
		if name == "" || strings.ContainsAny(name, `/\`) {
			warnings = append(warnings, fmt.Sprintf("analysis.exclude entry %q must be a bare directory or file name", name))
		}
	}

	// Check sample rate range [0, 1.0]
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing.sample_rate %.2f is outside range [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Graph.Enabled() && c.Graph.Password == "" {
		warnings = append(warnings, fmt.Sprintf("graph uri '%s' is configured but password is empty", c.Graph.URI))
	}

	if c.Snapshot.Dir == "" {
		warnings = append(warnings, "snapshot.dir is empty, history commands will use the working directory")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log.level %q is unknown, using info", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log.format %q is unknown, using text", c.Log.Format))
	}

	return warnings
}

// Load reads configuration from file and environment. An empty path looks
// for driftwatch.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("driftwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("DRIFTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
