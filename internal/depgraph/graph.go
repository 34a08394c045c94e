// Package depgraph stores modules as nodes and their dependencies as
// directed edges, and provides traversal, cycle enumeration, statistics,
// and export.
package depgraph

import (
	"sort"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// Graph is a directed module dependency graph. Every edge's endpoints are
// nodes of the graph. Parallel edges are kept for statistics while
// traversal sees a simple adjacency relation.
type Graph struct {
	nodes map[string]*ir.ModuleRecord
	edges []ir.DependencyEdge
	out   map[string]map[string]int
	in    map[string]map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*ir.ModuleRecord),
		out:   make(map[string]map[string]int),
		in:    make(map[string]map[string]int),
	}
}

// Build creates a graph from extracted modules and edges. Edges whose
// target is not a module (external libraries, unresolved paths) are dropped.
func Build(modules []*ir.ModuleRecord, edges []ir.DependencyEdge) *Graph {
	g := New()
	for _, m := range modules {
		g.AddNode(m)
	}
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g
}

// AddNode adds a module. It returns false when the ID is already present;
// the existing record is kept.
func (g *Graph) AddNode(m *ir.ModuleRecord) bool {
	if m == nil || m.ID == "" {
		return false
	}
	if _, ok := g.nodes[m.ID]; ok {
		return false
	}
	g.nodes[m.ID] = m
	return true
}

// AddEdge adds a dependency. It is a no-op returning false when either
// endpoint is missing.
func (g *Graph) AddEdge(e ir.DependencyEdge) bool {
	if _, ok := g.nodes[e.Source]; !ok {
		return false
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return false
	}
	g.edges = append(g.edges, e)
	if g.out[e.Source] == nil {
		g.out[e.Source] = make(map[string]int)
	}
	g.out[e.Source][e.Target]++
	if g.in[e.Target] == nil {
		g.in[e.Target] = make(map[string]int)
	}
	g.in[e.Target][e.Source]++
	return true
}

// Node returns the module with the given ID.
func (g *Graph) Node(id string) (*ir.ModuleRecord, bool) {
	m, ok := g.nodes[id]
	return m, ok
}

// Nodes returns every module sorted by ID.
func (g *Graph) Nodes() []*ir.ModuleRecord {
	out := make([]*ir.ModuleRecord, 0, len(g.nodes))
	for _, id := range g.IDs() {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns every node ID, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges returns the edges in insertion order, parallel edges included.
func (g *Graph) Edges() []ir.DependencyEdge {
	return append([]ir.DependencyEdge(nil), g.edges...)
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Successors returns the distinct targets of id's outgoing edges, sorted.
func (g *Graph) Successors(id string) []string {
	return sortedKeys(g.out[id])
}

// Predecessors returns the distinct sources of id's incoming edges, sorted.
func (g *Graph) Predecessors(id string) []string {
	return sortedKeys(g.in[id])
}

// HasEdge reports whether at least one edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return g.out[from][to] > 0
}

// SetLayer assigns a layer to a node.
func (g *Graph) SetLayer(id string, layer ir.Layer) bool {
	m, ok := g.nodes[id]
	if !ok {
		return false
	}
	m.Layer = layer
	return true
}

// ApplyLayers copies an assignment onto the nodes.
func (g *Graph) ApplyLayers(a ir.LayerAssignment) {
	for id, l := range a {
		g.SetLayer(id, l)
	}
}

// LayerOf returns a node's layer, or ir.LayerUnset.
func (g *Graph) LayerOf(id string) ir.Layer {
	if m, ok := g.nodes[id]; ok {
		return m.Layer
	}
	return ir.LayerUnset
}

// NodesByLayer returns the modules assigned to layer, sorted by ID.
func (g *Graph) NodesByLayer(layer ir.Layer) []*ir.ModuleRecord {
	var out []*ir.ModuleRecord
	for _, id := range g.IDs() {
		if g.nodes[id].Layer == layer {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// ShortestPath returns a shortest dependency path from a to b, inclusive,
// or false when b is unreachable.
func (g *Graph) ShortestPath(a, b string) ([]string, bool) {
	if _, ok := g.nodes[a]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[b]; !ok {
		return nil, false
	}
	if a == b {
		return []string{a}, true
	}
	prev := map[string]string{a: ""}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == b {
				var path []string
				for n := b; n != a; n = prev[n] {
					path = append(path, n)
				}
				path = append(path, a)
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// Snapshot returns the portable form of the graph. Nodes are sorted by ID
// and edges keep insertion order.
func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		Nodes: make([]SnapshotNode, 0, len(g.nodes)),
		Edges: make([]SnapshotEdge, 0, len(g.edges)),
	}
	for _, m := range g.Nodes() {
		s.Nodes = append(s.Nodes, SnapshotNode{
			ID:       m.ID,
			Label:    m.Label(),
			FilePath: m.FilePath,
			Layer:    m.Layer,
			IsTest:   m.IsTest,
		})
	}
	for _, e := range g.edges {
		s.Edges = append(s.Edges, SnapshotEdge{From: e.Source, To: e.Target, Kind: e.Kind})
	}
	return s
}

// FromSnapshot rebuilds a graph from its portable form.
func FromSnapshot(s *Snapshot) *Graph {
	g := New()
	for _, n := range s.Nodes {
		g.AddNode(&ir.ModuleRecord{ID: n.ID, FilePath: n.FilePath, Layer: n.Layer, IsTest: n.IsTest})
	}
	for _, e := range s.Edges {
		g.AddEdge(ir.DependencyEdge{Source: e.From, Target: e.To, Kind: e.Kind})
	}
	return g
}

// Annotate marks edges that lie on a violation's dependency path and sets
// each node's severity to the highest severity of the violations touching it.
func (s *Snapshot) Annotate(violations []ir.Violation) {
	type pair struct{ from, to string }
	violating := make(map[pair]bool)
	nodeSev := make(map[string]ir.Severity)
	raise := func(id string, sev ir.Severity) {
		if cur, ok := nodeSev[id]; !ok || sev.Rank() > cur.Rank() {
			nodeSev[id] = sev
		}
	}
	for _, v := range violations {
		raise(v.SourceModule, v.Severity)
		raise(v.TargetModule, v.Severity)
		for i := 0; i+1 < len(v.DependencyPath); i++ {
			violating[pair{v.DependencyPath[i], v.DependencyPath[i+1]}] = true
		}
	}
	for i := range s.Nodes {
		s.Nodes[i].Severity = nodeSev[s.Nodes[i].ID]
	}
	for i := range s.Edges {
		s.Edges[i].Violates = violating[pair{s.Edges[i].From, s.Edges[i].To}]
	}
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
