package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/driftwatch/internal/analysis"
	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
)

// Snapshot statuses.
const (
	StatusClean   = "clean"   // no violations
	StatusDrifted = "drifted" // at least one violation
	StatusPartial = "partial" // scan was canceled
)

// DefaultBranch is recorded when no branch is given.
const DefaultBranch = "main"

// Snapshot represents a point-in-time capture of an analysis.
type Snapshot struct {
	ID           string                `json:"id"`
	ParentID     string                `json:"parent_id,omitempty"`
	Tag          string                `json:"tag,omitempty"`
	Repository   string                `json:"repository"`
	Branch       string                `json:"branch"`
	Root         string                `json:"root"`
	CreatedAt    time.Time             `json:"created_at"`
	ContentHash  string                `json:"content_hash"`
	Status       string                `json:"status"`
	Architecture ir.ArchitectureConfig `json:"architecture"`
	Graph        *depgraph.Snapshot    `json:"graph"`
	Violations   []ir.Violation        `json:"violations"`
	Summary      Summary               `json:"summary"`
	Stats        depgraph.Stats        `json:"stats"`
	Cycles       int                   `json:"cycles"`
	Warnings     int                   `json:"warnings"`
	Metadata     map[string]string     `json:"metadata,omitempty"`
}

// Summary counts violations per severity.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Sub returns s - o field by field.
func (s Summary) Sub(o Summary) Summary {
	return Summary{
		Total:    s.Total - o.Total,
		Critical: s.Critical - o.Critical,
		High:     s.High - o.High,
		Medium:   s.Medium - o.Medium,
		Low:      s.Low - o.Low,
	}
}

// Summarize counts violations per severity.
func Summarize(vs []ir.Violation) Summary {
	s := Summary{Total: len(vs)}
	for _, v := range vs {
		switch v.Severity {
		case ir.SeverityCritical:
			s.Critical++
		case ir.SeverityHigh:
			s.High++
		case ir.SeverityMedium:
			s.Medium++
		case ir.SeverityLow:
			s.Low++
		}
	}
	return s
}

// SnapshotIndex is a lightweight listing of all snapshots for fast lookup.
type SnapshotIndex struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SnapshotSummary is the minimal info for listing snapshots.
type SnapshotSummary struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parent_id,omitempty"`
	Tag        string    `json:"tag,omitempty"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	CreatedAt  time.Time `json:"created_at"`
	Status     string    `json:"status"`
	Modules    int       `json:"modules"`
	Summary    Summary   `json:"summary"`
}

// NewFromReport captures an analysis report.
func NewFromReport(r *analysis.Report, repository, branch string) *Snapshot {
	if branch == "" {
		branch = DefaultBranch
	}
	snap := &Snapshot{
		ID:           uuid.NewString(),
		Repository:   repository,
		Branch:       branch,
		Root:         r.Root,
		CreatedAt:    time.Now().UTC(),
		Architecture: r.Architecture,
		Graph:        r.Graph,
		Violations:   r.Violations,
		Summary:      Summarize(r.Violations),
		Stats:        r.Stats,
		Cycles:       len(r.Cycles),
		Warnings:     len(r.Warnings),
		Metadata:     make(map[string]string),
	}
	switch {
	case r.Canceled:
		snap.Status = StatusPartial
	case len(r.Violations) > 0:
		snap.Status = StatusDrifted
	default:
		snap.Status = StatusClean
	}
	snap.Metadata["threshold"] = string(r.Threshold)
	snap.ContentHash = computeContentHash(snap)
	return snap
}

// ContentHash computes SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// computeContentHash hashes the graph edges and violation keys so two runs
// over an unchanged tree share a hash.
func computeContentHash(s *Snapshot) string {
	var lines []string
	if s.Graph != nil {
		for _, n := range s.Graph.Nodes {
			lines = append(lines, "n:"+n.ID+":"+string(n.Layer))
		}
		for _, e := range s.Graph.Edges {
			lines = append(lines, "e:"+e.From+":"+e.To)
		}
	}
	for _, v := range s.Violations {
		lines = append(lines, "v:"+v.Key())
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GateContext converts the snapshot into quality gate input.
func (s *Snapshot) GateContext() *qualitygate.EvalContext {
	return &qualitygate.EvalContext{
		Violations: s.Violations,
		Cycles:     s.Cycles,
		Acyclic:    s.Stats.IsDAG,
		Modules:    s.Stats.Nodes,
		Warnings:   s.Warnings,
		Canceled:   s.Status == StatusPartial,
	}
}

// Index returns a lightweight summary of this snapshot.
func (s *Snapshot) Index() SnapshotSummary {
	modules := 0
	if s.Graph != nil {
		modules = len(s.Graph.Nodes)
	}
	return SnapshotSummary{
		ID:         s.ID,
		ParentID:   s.ParentID,
		Tag:        s.Tag,
		Repository: s.Repository,
		Branch:     s.Branch,
		CreatedAt:  s.CreatedAt,
		Status:     s.Status,
		Modules:    modules,
		Summary:    s.Summary,
	}
}
