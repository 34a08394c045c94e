package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"

	"github.com/efebarandurmaz/driftwatch/internal/analysis"
	"github.com/efebarandurmaz/driftwatch/internal/config"
	"github.com/efebarandurmaz/driftwatch/internal/graph"
	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
	"github.com/efebarandurmaz/driftwatch/internal/snapshot"
)

// SnapshotResult is the serializable outcome of the analyze activity.
type SnapshotResult struct {
	SnapshotID string
	ParentID   string
	Status     string
	Modules    int
	Summary    snapshot.Summary
}

// CompareResult summarizes the difference from the previous snapshot.
type CompareResult struct {
	FromID   string
	Added    int
	Resolved int
	Change   snapshot.Summary
}

// Activities holds the resources shared by every activity. Graph is
// optional; without it the publish activity is a no-op.
type Activities struct {
	Config   *config.Config
	Analyzer *analysis.Analyzer
	Store    *snapshot.Store
	Graph    graph.Repository
	Logger   *slog.Logger
}

func (a *Activities) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Analyze runs the analysis and saves its snapshot.
func (a *Activities) Analyze(ctx context.Context, input AnalysisInput) (SnapshotResult, error) {
	cfg := *a.Config
	if input.SeverityThreshold != "" {
		cfg.Analysis.SeverityThreshold = input.SeverityThreshold
	}

	report, err := a.Analyzer.Run(ctx, analysis.FromConfig(input.Root, &cfg))
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("analyze %s: %w", input.Root, err)
	}

	snap := snapshot.NewFromReport(report, input.Repository, input.Branch)
	if activity.IsActivity(ctx) {
		snap.Metadata["workflow_id"] = activity.GetInfo(ctx).WorkflowExecution.ID
	}
	if err := a.Store.Save(snap); err != nil {
		return SnapshotResult{}, fmt.Errorf("save snapshot: %w", err)
	}

	a.logger().Info("snapshot saved",
		"id", snap.ID,
		"repository", snap.Repository,
		"status", snap.Status,
		"violations", snap.Summary.Total,
	)
	return SnapshotResult{
		SnapshotID: snap.ID,
		ParentID:   snap.ParentID,
		Status:     snap.Status,
		Modules:    snap.Stats.Nodes,
		Summary:    snap.Summary,
	}, nil
}

// Publish stores the snapshot graph in the graph repository.
func (a *Activities) Publish(ctx context.Context, snapshotID string) error {
	if a.Graph == nil {
		a.logger().Debug("no graph repository configured, skipping publish", "snapshot", snapshotID)
		return nil
	}
	snap, err := a.Store.Load(snapshotID)
	if err != nil {
		return err
	}
	project := snap.Repository
	if snap.Branch != "" {
		project += "@" + snap.Branch
	}
	return a.Graph.StoreSnapshot(ctx, project, snap.Graph, snap.Violations)
}

// Compare diffs the snapshot against its parent. Without a parent the
// result is empty.
func (a *Activities) Compare(_ context.Context, snapshotID string) (CompareResult, error) {
	to, err := a.Store.Load(snapshotID)
	if err != nil {
		return CompareResult{}, err
	}
	if to.ParentID == "" {
		return CompareResult{}, nil
	}
	from, err := a.Store.Load(to.ParentID)
	if err != nil {
		return CompareResult{}, err
	}
	c := snapshot.Compare(from, to)
	return CompareResult{
		FromID:   from.ID,
		Added:    len(c.Added),
		Resolved: len(c.Resolved),
		Change:   c.SummaryChange,
	}, nil
}

// EvaluateGates runs the configured quality gates over the snapshot.
func (a *Activities) EvaluateGates(ctx context.Context, snapshotID string) (*qualitygate.PipelineResult, error) {
	snap, err := a.Store.Load(snapshotID)
	if err != nil {
		return nil, err
	}
	result := qualitygate.BuildPipeline(&a.Config.Gates).Run(ctx, snap.GateContext())
	return result, nil
}
