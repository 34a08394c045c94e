// Package analysis runs the drift pipeline: extraction, graph construction,
// layer inference, rule compilation and violation detection.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/driftwatch/internal/config"
	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/drift"
	"github.com/efebarandurmaz/driftwatch/internal/extract"
	"github.com/efebarandurmaz/driftwatch/internal/inference"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/metrics"
	"github.com/efebarandurmaz/driftwatch/internal/observability"
	"github.com/efebarandurmaz/driftwatch/internal/plugins"
	"github.com/efebarandurmaz/driftwatch/internal/rules"
)

// Stage names, also used as span names.
const (
	StageExtract   = "extract"
	StageGraph     = "graph.build"
	StageInference = "inference"
	StageRules     = "rules.compile"
	StageDetect    = "drift.detect"
)

// Options configures one analysis.
type Options struct {
	Extract   extract.Options
	Drift     drift.Options
	Threshold ir.Severity
	// Timeout bounds the run; an expired run returns partial results.
	Timeout time.Duration
}

// FromConfig builds options for root from the loaded configuration.
func FromConfig(root string, cfg *config.Config) Options {
	a := cfg.Analysis
	return Options{
		Extract: extract.Options{
			Root:         root,
			Exclude:      a.Exclude,
			IncludeTests: a.IncludeTests,
			Workers:      a.Workers,
			MaxFileSize:  a.MaxFileSize,
		},
		Drift:     a.DriftOptions(),
		Threshold: a.Threshold(),
		Timeout:   a.Timeout,
	}
}

// Analyzer wires the pipeline stages together.
type Analyzer struct {
	scanner *extract.Scanner
	engine  *inference.Engine
	logger  *slog.Logger
}

// New creates an analyzer. A nil registry uses plugins.Default and a nil
// logger uses slog.Default.
func New(registry *plugins.Registry, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		scanner: extract.NewScanner(registry, logger),
		engine:  inference.New(),
		logger:  logger,
	}
}

// Run analyzes opts.Extract.Root. Only configuration problems are returned as
// errors; cancellation yields a report with Canceled set.
func (a *Analyzer) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if opts.Threshold == "" {
		opts.Threshold = ir.SeverityLow
	}

	ctx, span := observability.StartRunSpan(ctx, opts.Extract.Root)
	defer span.End()

	m := metrics.New(opts.Extract.Root)

	// Extract
	done := m.Stage(StageExtract)
	_, s := observability.StartStageSpan(ctx, StageExtract)
	res, err := a.scanner.Scan(ctx, opts.Extract)
	if err != nil {
		observability.RecordError(s, err)
		s.End()
		observability.RecordError(span, err)
		return nil, fmt.Errorf("extract: %w", err)
	}
	observability.RecordCounts(s, map[string]int{
		"modules":  len(res.Modules),
		"edges":    len(res.Edges),
		"warnings": len(res.Warnings),
	})
	s.End()
	done(len(res.Modules))
	m.CollectExtraction(res.Modules, len(res.Edges), len(res.Warnings))

	// Graph
	done = m.Stage(StageGraph)
	_, s = observability.StartStageSpan(ctx, StageGraph)
	g := depgraph.Build(res.Modules, res.Edges)
	stats := g.Stats()
	cycles := g.FindCyclesLimit(opts.Drift.MaxCycles)
	observability.RecordCounts(s, map[string]int{
		"nodes":      stats.Nodes,
		"edges":      stats.Edges,
		"components": stats.Components,
		"cycles":     len(cycles),
	})
	s.End()
	done(stats.Edges)

	// Inference
	done = m.Stage(StageInference)
	_, s = observability.StartStageSpan(ctx, StageInference)
	inferred := a.engine.Infer(g)
	arch := inferred.Config()
	observability.RecordCounts(s, map[string]int{"layers": len(arch.Layers)})
	s.End()
	done(len(arch.Layers))

	// Rules
	done = m.Stage(StageRules)
	_, s = observability.StartStageSpan(ctx, StageRules)
	rs := rules.Compile(arch)
	observability.RecordCounts(s, map[string]int{"rules": len(rs.Rules())})
	s.End()
	done(len(rs.Rules()))

	// Detect
	done = m.Stage(StageDetect)
	_, s = observability.StartStageSpan(ctx, StageDetect)
	detected := drift.New(opts.Drift).Detect(g, rs, inferred.Assignment)
	kept := drift.FilterBySeverity(detected, opts.Threshold)
	observability.RecordCounts(s, map[string]int{
		"detected":   len(detected),
		"violations": len(kept),
	})
	s.End()
	done(len(kept))

	m.CollectDrift(len(cycles), kept)
	m.Finish(res.Canceled, nil)

	snap := g.Snapshot()
	snap.Annotate(kept)

	report := &Report{
		Root:         res.Root,
		Warnings:     res.Warnings,
		Graph:        snap,
		Architecture: arch,
		Rules:        rs.Rules(),
		Violations:   kept,
		Detected:     len(detected),
		Threshold:    opts.Threshold,
		BySeverity:   drift.CountBySeverity(kept),
		ByType:       drift.CountByType(kept),
		Stats:        stats,
		Cycles:       cycles,
		Canceled:     res.Canceled,
		Metrics:      m,
	}

	a.logger.Info("analysis complete",
		"root", report.Root,
		"modules", stats.Nodes,
		"edges", stats.Edges,
		"layers", len(arch.Layers),
		"violations", len(kept),
		"filtered", len(detected)-len(kept),
		"canceled", report.Canceled,
		"duration", m.Duration.Round(time.Millisecond),
	)
	return report, nil
}
