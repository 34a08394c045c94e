package snapshot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// Comparison is the violation-level difference between two snapshots.
type Comparison struct {
	FromID        string         `json:"from_id"`
	ToID          string         `json:"to_id"`
	FromTimestamp time.Time      `json:"from_timestamp"`
	ToTimestamp   time.Time      `json:"to_timestamp"`
	Added         []ir.Violation `json:"added_violations"`
	Resolved      []ir.Violation `json:"resolved_violations"`
	Unchanged     int            `json:"unchanged"`
	SummaryChange Summary        `json:"summary_change"`
	LayerChanges  []LayerChange  `json:"layer_changes,omitempty"`
}

// LayerChange records a layer whose hierarchy level moved, appeared or
// disappeared between snapshots.
type LayerChange struct {
	Layer    ir.Layer `json:"layer"`
	OldLevel *int     `json:"old_level,omitempty"`
	NewLevel *int     `json:"new_level,omitempty"`
}

// Regressed reports whether the newer snapshot introduced violations.
func (c *Comparison) Regressed() bool {
	return len(c.Added) > 0
}

// Compare diffs two snapshots. Violations are matched by type, source and
// target; IDs and timestamps are ignored.
func Compare(from, to *Snapshot) *Comparison {
	c := &Comparison{
		FromID:        from.ID,
		ToID:          to.ID,
		FromTimestamp: from.CreatedAt,
		ToTimestamp:   to.CreatedAt,
		Added:         []ir.Violation{},
		Resolved:      []ir.Violation{},
		SummaryChange: to.Summary.Sub(from.Summary),
	}

	fromKeys := keyed(from.Violations)
	toKeys := keyed(to.Violations)

	for _, k := range sortedKeys(toKeys) {
		if _, ok := fromKeys[k]; ok {
			c.Unchanged++
			continue
		}
		c.Added = append(c.Added, toKeys[k])
	}
	for _, k := range sortedKeys(fromKeys) {
		if _, ok := toKeys[k]; !ok {
			c.Resolved = append(c.Resolved, fromKeys[k])
		}
	}

	c.LayerChanges = diffLayers(from.Architecture.Hierarchy, to.Architecture.Hierarchy)
	return c
}

// keyed keeps the first violation per key.
func keyed(vs []ir.Violation) map[string]ir.Violation {
	out := make(map[string]ir.Violation, len(vs))
	for _, v := range vs {
		k := v.Key()
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func sortedKeys(m map[string]ir.Violation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffLayers(old, new ir.Hierarchy) []LayerChange {
	seen := make(map[ir.Layer]bool)
	var layers []ir.Layer
	for _, h := range []ir.Hierarchy{old, new} {
		for l := range h {
			if !seen[l] {
				seen[l] = true
				layers = append(layers, l)
			}
		}
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })

	var changes []LayerChange
	for _, l := range layers {
		ol, okOld := old[l]
		nl, okNew := new[l]
		if okOld && okNew && ol == nl {
			continue
		}
		ch := LayerChange{Layer: l}
		if okOld {
			ch.OldLevel = &ol
		}
		if okNew {
			ch.NewLevel = &nl
		}
		changes = append(changes, ch)
	}
	return changes
}

// FormatComparison returns a human-readable string representation of the comparison.
func FormatComparison(c *Comparison) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Compare: %s → %s\n", c.FromID, c.ToID))
	sb.WriteString(fmt.Sprintf("Time:    %s → %s\n\n",
		c.FromTimestamp.Format(time.RFC3339), c.ToTimestamp.Format(time.RFC3339)))

	d := c.SummaryChange
	sb.WriteString(fmt.Sprintf("Violations: total %+d (critical %+d, high %+d, medium %+d, low %+d)\n",
		d.Total, d.Critical, d.High, d.Medium, d.Low))
	sb.WriteString(fmt.Sprintf("Added: %d  Resolved: %d  Unchanged: %d\n\n",
		len(c.Added), len(c.Resolved), c.Unchanged))

	for _, v := range c.Added {
		sb.WriteString(fmt.Sprintf("  + [%s] %s (%s → %s)\n", v.Severity, v.Title, v.SourceModule, v.TargetModule))
	}
	for _, v := range c.Resolved {
		sb.WriteString(fmt.Sprintf("  - [%s] %s (%s → %s)\n", v.Severity, v.Title, v.SourceModule, v.TargetModule))
	}

	if len(c.LayerChanges) > 0 {
		sb.WriteString("\nLayers:\n")
		for _, lc := range c.LayerChanges {
			sb.WriteString(fmt.Sprintf("  %s: %s → %s\n", lc.Layer, levelString(lc.OldLevel), levelString(lc.NewLevel)))
		}
	}

	return sb.String()
}

func levelString(l *int) string {
	if l == nil {
		return "absent"
	}
	return fmt.Sprintf("%d", *l)
}
