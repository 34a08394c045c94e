package depgraph

import "github.com/efebarandurmaz/driftwatch/internal/ir"

// Snapshot is the portable node/edge form of a Graph.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

// SnapshotNode is one module in a Snapshot.
type SnapshotNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	FilePath string      `json:"file_path"`
	Layer    ir.Layer    `json:"layer"`
	IsTest   bool        `json:"is_test"`
	Severity ir.Severity `json:"severity,omitempty"` // highest severity of any violation touching the node
}

// SnapshotEdge is one dependency in a Snapshot. Parallel edges are kept.
type SnapshotEdge struct {
	From     string      `json:"from"`
	To       string      `json:"to"`
	Kind     ir.EdgeKind `json:"kind"`
	Violates bool        `json:"violates,omitempty"`
}

// Stats holds computed metrics about the graph
type Stats struct {
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`   // counts parallel edges
	Density    float64 `json:"density"` // distinct pairs / n(n-1)
	IsDAG      bool    `json:"is_dag"`
	Components int     `json:"components"` // weakly connected
	MaxFanOut  int     `json:"max_fan_out"`
	MaxFanIn   int     `json:"max_fan_in"`
	Hotspot    string  `json:"hotspot,omitempty"` // node with the most distinct successors
}
