// Package graph persists analyzed dependency graphs for later querying.
package graph

import (
	"context"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// Repository provides graph storage for analysis results.
type Repository interface {
	// StoreSnapshot replaces the stored graph and violations of a project.
	StoreSnapshot(ctx context.Context, project string, snap *depgraph.Snapshot, violations []ir.Violation) error
	// LoadSnapshot retrieves the stored graph of a project.
	LoadSnapshot(ctx context.Context, project string) (*depgraph.Snapshot, error)
	// LoadViolations retrieves the stored violations of a project.
	LoadViolations(ctx context.Context, project string) ([]ir.Violation, error)
	// QueryDependents returns every module that depends on moduleID,
	// directly or transitively, sorted.
	QueryDependents(ctx context.Context, project, moduleID string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
