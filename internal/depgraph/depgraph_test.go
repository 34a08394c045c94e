package depgraph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

func mods(ids ...string) []*ir.ModuleRecord {
	out := make([]*ir.ModuleRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, &ir.ModuleRecord{ID: id, FilePath: strings.ReplaceAll(id, ".", "/") + ".py"})
	}
	return out
}

func edges(pairs ...string) []ir.DependencyEdge {
	out := make([]ir.DependencyEdge, 0, len(pairs))
	for _, p := range pairs {
		parts := strings.Split(p, "->")
		out = append(out, ir.DependencyEdge{Source: parts[0], Target: parts[1], Kind: ir.EdgePatternImport})
	}
	return out
}

func TestAddEdgeIgnoresMissingEndpoints(t *testing.T) {
	g := Build(mods("a", "b"), edges("a->b", "a->os", "ghost->b"))

	assert.Len(t, g.Edges(), 1)
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))
	assert.Empty(t, g.Successors("b"))
}

func TestParallelEdgesKeptButAdjacencyIsSimple(t *testing.T) {
	g := Build(mods("a", "b"), nil)
	g.AddEdge(ir.DependencyEdge{Source: "a", Target: "b", Kind: ir.EdgeASTImport})
	g.AddEdge(ir.DependencyEdge{Source: "a", Target: "b", Kind: ir.EdgePatternImport})
	g.AddEdge(ir.DependencyEdge{Source: "a", Target: "b", Kind: ir.EdgePatternImport, Line: 9})

	assert.Len(t, g.Edges(), 3)
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, 3, g.Stats().Edges)
}

func TestAddNodeKeepsFirstRecord(t *testing.T) {
	g := New()
	require.True(t, g.AddNode(&ir.ModuleRecord{ID: "a", FilePath: "a.py"}))
	assert.False(t, g.AddNode(&ir.ModuleRecord{ID: "a", FilePath: "a.js"}))
	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, "a.py", n.FilePath)
}

func TestFindCyclesSimpleTriangle(t *testing.T) {
	g := Build(mods("a", "b", "c"), edges("a->b", "b->c", "c->a"))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.FindCycles())
}

func TestFindCyclesIndependentOfInsertionOrder(t *testing.T) {
	g1 := Build(mods("c", "b", "a"), edges("c->a", "b->c", "a->b"))
	g2 := Build(mods("b", "a", "c"), edges("b->c", "a->b", "c->a"))
	assert.Equal(t, g1.FindCycles(), g2.FindCycles())
	assert.Equal(t, [][]string{{"a", "b", "c"}}, g1.FindCycles())
}

func TestFindCyclesEnumeratesEveryElementaryCycleOnce(t *testing.T) {
	g := Build(mods("a", "b", "c", "d"), edges("a->b", "b->a", "b->c", "c->b", "c->a", "c->d"))
	assert.Equal(t, [][]string{
		{"a", "b"},
		{"a", "b", "c"},
		{"b", "c"},
	}, g.FindCycles())
}

func TestFindCyclesSelfLoop(t *testing.T) {
	g := Build(mods("a", "b"), edges("a->a", "a->b"))
	assert.Equal(t, [][]string{{"a"}}, g.FindCycles())
	assert.False(t, g.IsAcyclic())
}

func TestFindCyclesLimit(t *testing.T) {
	g := Build(mods("a", "b", "c"), edges("a->b", "b->a", "b->c", "c->b"))
	assert.Len(t, g.FindCycles(), 2)
	assert.Len(t, g.FindCyclesLimit(1), 1)
}

func TestFindCyclesEmptyAndAcyclic(t *testing.T) {
	assert.Empty(t, New().FindCycles())
	g := Build(mods("a", "b", "c"), edges("a->b", "b->c", "a->c"))
	assert.Empty(t, g.FindCycles())
	assert.True(t, g.IsAcyclic())
}

func TestCanonicalCycle(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, CanonicalCycle([]string{"c", "a", "b"}))
	assert.Equal(t, []string{"a", "b", "c"}, CanonicalCycle([]string{"b", "c", "a"}))
	assert.Nil(t, CanonicalCycle(nil))
}

func TestShortestPath(t *testing.T) {
	g := Build(mods("a", "b", "c", "d", "e"), edges("a->c", "c->e", "e->d", "a->b", "b->d"))

	path, ok := g.ShortestPath("a", "d")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "d"}, path)

	_, ok = g.ShortestPath("d", "a")
	assert.False(t, ok)

	path, ok = g.ShortestPath("a", "a")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, path)

	_, ok = g.ShortestPath("a", "missing")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	g := Build(mods("a", "b", "c", "x", "y"), edges("a->b", "a->c", "b->c", "x->y"))
	st := g.Stats()

	assert.Equal(t, 5, st.Nodes)
	assert.Equal(t, 4, st.Edges)
	assert.InDelta(t, 4.0/20.0, st.Density, 1e-9)
	assert.True(t, st.IsDAG)
	assert.Equal(t, 2, st.Components)
	assert.Equal(t, 2, st.MaxFanOut)
	assert.Equal(t, "a", st.Hotspot)
	assert.Equal(t, 2, st.MaxFanIn)
}

func TestStatsDegenerateGraphs(t *testing.T) {
	st := New().Stats()
	assert.Equal(t, Stats{IsDAG: true}, st)

	st = Build(mods("solo"), nil).Stats()
	assert.Equal(t, 1, st.Nodes)
	assert.Equal(t, 1, st.Components)
	assert.Zero(t, st.Density)
}

func TestSnapshotRoundTripPreservesCounts(t *testing.T) {
	g := Build(mods("a", "b", "c"), edges("a->b", "a->b", "b->c", "c->a"))
	g.SetLayer("a", ir.LayerGateway)

	data, err := ExportJSON(g.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	back := FromSnapshot(&snap)

	assert.Equal(t, g.Stats(), back.Stats())
	assert.Equal(t, len(snap.Nodes), g.Stats().Nodes)
	assert.Equal(t, len(snap.Edges), g.Stats().Edges)
	assert.Equal(t, ir.LayerGateway, back.LayerOf("a"))
}

func TestSnapshotNodeFields(t *testing.T) {
	g := Build([]*ir.ModuleRecord{{ID: "src.api.routes", FilePath: "src/api/routes.py", IsTest: true}}, nil)
	g.SetLayer("src.api.routes", ir.LayerGateway)

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, SnapshotNode{
		ID:       "src.api.routes",
		Label:    "routes",
		FilePath: "src/api/routes.py",
		Layer:    ir.LayerGateway,
		IsTest:   true,
	}, snap.Nodes[0])
}

func TestNodesByLayer(t *testing.T) {
	g := Build(mods("c", "a", "b"), nil)
	g.ApplyLayers(ir.LayerAssignment{"a": ir.LayerData, "b": ir.LayerService, "c": ir.LayerData})

	var ids []string
	for _, m := range g.NodesByLayer(ir.LayerData) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Empty(t, g.NodesByLayer(ir.LayerLegacy))
}

func TestAnnotate(t *testing.T) {
	g := Build(mods("a", "b", "c"), edges("a->b", "b->c"))
	snap := g.Snapshot()
	snap.Annotate([]ir.Violation{
		{SourceModule: "a", TargetModule: "b", Severity: ir.SeverityMedium, DependencyPath: []string{"a", "b"}},
		{SourceModule: "b", TargetModule: "c", Severity: ir.SeverityCritical, DependencyPath: []string{"b", "c"}},
	})

	assert.Equal(t, ir.SeverityMedium, snap.Nodes[0].Severity)
	assert.Equal(t, ir.SeverityCritical, snap.Nodes[1].Severity)
	assert.Equal(t, ir.SeverityCritical, snap.Nodes[2].Severity)
	assert.True(t, snap.Edges[0].Violates)
	assert.True(t, snap.Edges[1].Violates)
}

func TestExportDOTAndMermaid(t *testing.T) {
	g := Build(mods("web.ui", "db.repo"), edges("web.ui->db.repo"))
	g.ApplyLayers(ir.LayerAssignment{"web.ui": ir.LayerPresentation, "db.repo": ir.LayerData})
	snap := g.Snapshot()
	snap.Annotate([]ir.Violation{{
		SourceModule: "web.ui", TargetModule: "db.repo",
		Severity: ir.SeverityHigh, DependencyPath: []string{"web.ui", "db.repo"},
	}})

	dot := ExportDOT(snap)
	assert.True(t, strings.HasPrefix(dot, "digraph dependencies {"))
	assert.Contains(t, dot, "subgraph cluster_presentation")
	assert.Contains(t, dot, "subgraph cluster_data")
	assert.Contains(t, dot, `"web.ui" -> "db.repo" [style=bold color="#f85149"]`)

	mm := ExportMermaid(snap)
	assert.Contains(t, mm, "web_ui ==> db_repo")
	assert.Contains(t, mm, "linkStyle 0 stroke:#f85149")
	assert.Contains(t, mm, `web_ui["ui"]`)
}

func TestFormatStats(t *testing.T) {
	g := Build(mods("a", "b"), edges("a->b", "b->a"))
	out := FormatStats(g.Stats(), g.FindCycles())
	assert.Contains(t, out, "Nodes:       2")
	assert.Contains(t, out, "Acyclic:     false")
	assert.Contains(t, out, "1: a -> b -> a")
}
