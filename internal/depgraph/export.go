package depgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// ExportDOT generates a Graphviz DOT representation of the snapshot with
// one cluster per layer and violating edges drawn in red.
func ExportDOT(s *Snapshot) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box style=filled];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	layers, byLayer := groupByLayer(s)
	for _, layer := range layers {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(layerName(layer))))
		b.WriteString(fmt.Sprintf("    label=\"%s\";\n", layerName(layer)))
		b.WriteString("    style=dashed;\n")
		b.WriteString(fmt.Sprintf("    color=\"%s\";\n", layerColor(layer)))
		for _, n := range byLayer[layer] {
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" fillcolor=\"%s\"];\n",
				n.ID, n.Label, severityColor(n.Severity)))
		}
		b.WriteString("  }\n\n")
	}

	for _, e := range s.Edges {
		style, color := "solid", "#8b949e"
		if e.Violates {
			style, color = "bold", "#f85149"
		}
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s color=\"%s\"];\n",
			e.From, e.To, style, color))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the snapshot.
func ExportMermaid(s *Snapshot) string {
	var b strings.Builder
	b.WriteString("graph TB\n")

	layers, byLayer := groupByLayer(s)
	for _, layer := range layers {
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(layerName(layer))))
		for _, n := range byLayer[layer] {
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeID(n.ID), n.Label))
		}
		b.WriteString("  end\n")
	}

	var violating []int
	for i, e := range s.Edges {
		arrow := "-->"
		if e.Violates {
			arrow = "==>"
			violating = append(violating, i)
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", sanitizeID(e.From), arrow, sanitizeID(e.To)))
	}
	for _, i := range violating {
		b.WriteString(fmt.Sprintf("  linkStyle %d stroke:#f85149\n", i))
	}
	for _, n := range s.Nodes {
		if n.Severity != "" {
			b.WriteString(fmt.Sprintf("  style %s fill:%s\n", sanitizeID(n.ID), severityColor(n.Severity)))
		}
	}

	return b.String()
}

// ExportJSON serializes the snapshot to JSON.
func ExportJSON(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(st Stats, cycles [][]string) string {
	var b strings.Builder
	b.WriteString("Dependency Graph Statistics\n")
	b.WriteString("==========================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:       %d\n", st.Nodes))
	b.WriteString(fmt.Sprintf("Edges:       %d\n", st.Edges))
	b.WriteString(fmt.Sprintf("Density:     %.4f\n", st.Density))
	b.WriteString(fmt.Sprintf("Acyclic:     %t\n", st.IsDAG))
	b.WriteString(fmt.Sprintf("Max Fan-Out: %d (%s)\n", st.MaxFanOut, st.Hotspot))
	b.WriteString(fmt.Sprintf("Max Fan-In:  %d\n", st.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:  %d\n", st.Components))

	if len(cycles) > 0 {
		b.WriteString(fmt.Sprintf("\nCyclic Dependencies: %d\n", len(cycles)))
		for i, cycle := range cycles {
			b.WriteString(fmt.Sprintf("  %d: %s -> %s\n", i+1, strings.Join(cycle, " -> "), cycle[0]))
		}
	}
	return b.String()
}

func groupByLayer(s *Snapshot) ([]ir.Layer, map[ir.Layer][]SnapshotNode) {
	byLayer := make(map[ir.Layer][]SnapshotNode)
	for _, n := range s.Nodes {
		byLayer[n.Layer] = append(byLayer[n.Layer], n)
	}
	layers := make([]ir.Layer, 0, len(byLayer))
	for l := range byLayer {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })
	return layers, byLayer
}

func layerName(l ir.Layer) string {
	if l == ir.LayerUnset {
		return "unassigned"
	}
	return string(l)
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func layerColor(l ir.Layer) string {
	switch l {
	case ir.LayerPresentation:
		return "#58a6ff"
	case ir.LayerGateway:
		return "#8957e5"
	case ir.LayerService:
		return "#238636"
	case ir.LayerData:
		return "#d29922"
	case ir.LayerLegacy:
		return "#6e7681"
	default:
		return "#30363d"
	}
}

func severityColor(s ir.Severity) string {
	switch s {
	case ir.SeverityCritical:
		return "#f85149"
	case ir.SeverityHigh:
		return "#db6d28"
	case ir.SeverityMedium:
		return "#d29922"
	case ir.SeverityLow:
		return "#e3b341"
	default:
		return "#c9d1d9"
	}
}
