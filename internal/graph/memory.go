package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

type stored struct {
	snap       *depgraph.Snapshot
	violations []ir.Violation
}

// MemoryRepository keeps projects in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]stored
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{projects: make(map[string]stored)}
}

func (r *MemoryRepository) StoreSnapshot(_ context.Context, project string, snap *depgraph.Snapshot, violations []ir.Violation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := &depgraph.Snapshot{
		Nodes: append([]depgraph.SnapshotNode(nil), snap.Nodes...),
		Edges: append([]depgraph.SnapshotEdge(nil), snap.Edges...),
	}
	r.projects[project] = stored{snap: cp, violations: append([]ir.Violation(nil), violations...)}
	return nil
}

func (r *MemoryRepository) LoadSnapshot(_ context.Context, project string) (*depgraph.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[project]
	if !ok {
		return nil, fmt.Errorf("project %q not stored", project)
	}
	return p.snap, nil
}

func (r *MemoryRepository) LoadViolations(_ context.Context, project string) ([]ir.Violation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[project]
	if !ok {
		return nil, fmt.Errorf("project %q not stored", project)
	}
	return p.violations, nil
}

func (r *MemoryRepository) QueryDependents(ctx context.Context, project, moduleID string) ([]string, error) {
	snap, err := r.LoadSnapshot(ctx, project)
	if err != nil {
		return nil, err
	}
	return Dependents(depgraph.FromSnapshot(snap), moduleID), nil
}

func (r *MemoryRepository) Close(context.Context) error { return nil }

// Dependents walks predecessors of id breadth-first and returns them sorted.
func Dependents(g *depgraph.Graph, id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	out := []string{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range g.Predecessors(cur) {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	sort.Strings(out)
	return out
}

var _ Repository = (*MemoryRepository)(nil)
