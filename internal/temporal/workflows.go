package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
	"github.com/efebarandurmaz/driftwatch/internal/snapshot"
)

// AnalysisInput holds the workflow parameters.
type AnalysisInput struct {
	Root       string
	Repository string
	Branch     string

	// SeverityThreshold overrides analysis.severity_threshold when set.
	SeverityThreshold string
	// PublishGraph stores the graph in the configured graph repository.
	PublishGraph bool
}

// AnalysisOutput holds the workflow result.
type AnalysisOutput struct {
	SnapshotID  string
	Status      string
	Summary     snapshot.Summary
	Compare     CompareResult
	GatesPassed bool
	GateSummary string
}

// AnalysisWorkflow runs analyze, publish, compare and gate evaluation as
// separate activities so each step retries on its own.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	var a *Activities

	// Step 1: analyze and snapshot
	var snap SnapshotResult
	if err := workflow.ExecuteActivity(ctx, a.Analyze, input).Get(ctx, &snap); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	logger.Info("analysis finished", "snapshot", snap.SnapshotID, "violations", snap.Summary.Total)

	// Step 2: publish graph
	if input.PublishGraph {
		if err := workflow.ExecuteActivity(ctx, a.Publish, snap.SnapshotID).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
	}

	// Step 3: compare with the previous snapshot
	var cmp CompareResult
	if snap.ParentID != "" {
		if err := workflow.ExecuteActivity(ctx, a.Compare, snap.SnapshotID).Get(ctx, &cmp); err != nil {
			return nil, fmt.Errorf("compare: %w", err)
		}
	}

	// Step 4: gates
	var gates qualitygate.PipelineResult
	if err := workflow.ExecuteActivity(ctx, a.EvaluateGates, snap.SnapshotID).Get(ctx, &gates); err != nil {
		return nil, fmt.Errorf("gates: %w", err)
	}

	return &AnalysisOutput{
		SnapshotID:  snap.SnapshotID,
		Status:      snap.Status,
		Summary:     snap.Summary,
		Compare:     cmp,
		GatesPassed: gates.Passed(),
		GateSummary: gates.Summary,
	}, nil
}
