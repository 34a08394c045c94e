// Package neo4j stores analyzed dependency graphs in Neo4j.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/graph"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/observability"
)

const backend = "neo4j"

// Neo4jRepository implements graph.Repository using Neo4j. Modules are
// (:Module {project, id}) nodes joined by [:DEPENDS_ON]; violations are
// (:Violation) nodes with [:SOURCE] and [:TARGET] relationships.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password, database string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver, database: database}, nil
}

func (r *Neo4jRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database, AccessMode: mode})
}

func (r *Neo4jRepository) StoreSnapshot(ctx context.Context, project string, snap *depgraph.Snapshot, violations []ir.Violation) error {
	ctx, span := observability.StartStoreSpan(ctx, backend, "store")
	defer span.End()

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MATCH (n {project: $project}) WHERE n:Module OR n:Violation DETACH DELETE n",
			map[string]any{"project": project}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"UNWIND $nodes AS n "+
				"CREATE (m:Module {project: $project, id: n.id}) "+
				"SET m.label = n.label, m.file_path = n.file_path, m.layer = n.layer, "+
				"m.is_test = n.is_test, m.severity = n.severity",
			map[string]any{"project": project, "nodes": nodeParams(snap.Nodes)}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"UNWIND $edges AS e "+
				"MATCH (a:Module {project: $project, id: e.from}) "+
				"MATCH (b:Module {project: $project, id: e.to}) "+
				"CREATE (a)-[:DEPENDS_ON {kind: e.kind, violates: e.violates}]->(b)",
			map[string]any{"project": project, "edges": edgeParams(snap.Edges)}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"UNWIND $violations AS v "+
				"CREATE (x:Violation {project: $project}) SET x += v.props "+
				"WITH x, v "+
				"OPTIONAL MATCH (s:Module {project: $project, id: v.source}) "+
				"OPTIONAL MATCH (t:Module {project: $project, id: v.target}) "+
				"FOREACH (ignored IN CASE WHEN s IS NULL THEN [] ELSE [1] END | CREATE (x)-[:SOURCE]->(s)) "+
				"FOREACH (ignored IN CASE WHEN t IS NULL THEN [] ELSE [1] END | CREATE (x)-[:TARGET]->(t))",
			map[string]any{"project": project, "violations": violationParams(violations)}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("store project %s: %w", project, err)
	}
	return nil
}

func (r *Neo4jRepository) LoadSnapshot(ctx context.Context, project string) (*depgraph.Snapshot, error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "load")
	defer span.End()

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap := &depgraph.Snapshot{}

		records, err := tx.Run(ctx,
			"MATCH (m:Module {project: $project}) RETURN properties(m) AS props ORDER BY m.id",
			map[string]any{"project": project})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			props, _ := records.Record().Get("props")
			snap.Nodes = append(snap.Nodes, nodeFromProps(asMap(props)))
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Module {project: $project})-[d:DEPENDS_ON]->(b:Module {project: $project}) "+
				"RETURN a.id AS from, b.id AS to, d.kind AS kind, d.violates AS violates ORDER BY from, to",
			map[string]any{"project": project})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			from, _ := rec.Get("from")
			to, _ := rec.Get("to")
			kind, _ := rec.Get("kind")
			violates, _ := rec.Get("violates")
			snap.Edges = append(snap.Edges, depgraph.SnapshotEdge{
				From:     asString(from),
				To:       asString(to),
				Kind:     ir.EdgeKind(asString(kind)),
				Violates: asBool(violates),
			})
		}
		return snap, records.Err()
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load project %s: %w", project, err)
	}
	return result.(*depgraph.Snapshot), nil
}

func (r *Neo4jRepository) LoadViolations(ctx context.Context, project string) ([]ir.Violation, error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "violations")
	defer span.End()

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (v:Violation {project: $project}) RETURN properties(v) AS props ORDER BY v.seq",
			map[string]any{"project": project})
		if err != nil {
			return nil, err
		}
		var out []ir.Violation
		for records.Next(ctx) {
			props, _ := records.Record().Get("props")
			out = append(out, violationFromProps(asMap(props)))
		}
		return out, records.Err()
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load violations %s: %w", project, err)
	}
	return result.([]ir.Violation), nil
}

func (r *Neo4jRepository) QueryDependents(ctx context.Context, project, moduleID string) ([]string, error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "dependents")
	defer span.End()

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (d:Module {project: $project})-[:DEPENDS_ON*1..]->(:Module {project: $project, id: $id}) "+
				"WHERE d.id <> $id RETURN DISTINCT d.id AS id ORDER BY id",
			map[string]any{"project": project, "id": moduleID})
		if err != nil {
			return nil, err
		}
		names := []string{}
		for records.Next(ctx) {
			n, _ := records.Record().Get("id")
			names = append(names, asString(n))
		}
		return names, records.Err()
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func nodeParams(nodes []depgraph.SnapshotNode) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, map[string]any{
			"id":        n.ID,
			"label":     n.Label,
			"file_path": n.FilePath,
			"layer":     string(n.Layer),
			"is_test":   n.IsTest,
			"severity":  string(n.Severity),
		})
	}
	return out
}

func edgeParams(edges []depgraph.SnapshotEdge) []any {
	out := make([]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{
			"from":     e.From,
			"to":       e.To,
			"kind":     string(e.Kind),
			"violates": e.Violates,
		})
	}
	return out
}

func violationParams(vs []ir.Violation) []any {
	out := make([]any, 0, len(vs))
	for i, v := range vs {
		path := make([]any, len(v.DependencyPath))
		for j, p := range v.DependencyPath {
			path[j] = p
		}
		out = append(out, map[string]any{
			"source": v.SourceModule,
			"target": v.TargetModule,
			"props": map[string]any{
				"seq":             int64(i),
				"id":              v.ID,
				"key":             v.Key(),
				"type":            string(v.Type),
				"severity":        string(v.Severity),
				"title":           v.Title,
				"description":     v.Description,
				"source_module":   v.SourceModule,
				"target_module":   v.TargetModule,
				"dependency_path": path,
				"rule_name":       v.RuleName,
				"pattern_broken":  v.PatternBroken,
				"timestamp":       v.Timestamp.UTC().Format(time.RFC3339Nano),
			},
		})
	}
	return out
}

func nodeFromProps(p map[string]any) depgraph.SnapshotNode {
	return depgraph.SnapshotNode{
		ID:       asString(p["id"]),
		Label:    asString(p["label"]),
		FilePath: asString(p["file_path"]),
		Layer:    ir.Layer(asString(p["layer"])),
		IsTest:   asBool(p["is_test"]),
		Severity: ir.Severity(asString(p["severity"])),
	}
}

func violationFromProps(p map[string]any) ir.Violation {
	v := ir.Violation{
		ID:            asString(p["id"]),
		Type:          ir.ViolationType(asString(p["type"])),
		Severity:      ir.Severity(asString(p["severity"])),
		Title:         asString(p["title"]),
		Description:   asString(p["description"]),
		SourceModule:  asString(p["source_module"]),
		TargetModule:  asString(p["target_module"]),
		RuleName:      asString(p["rule_name"]),
		PatternBroken: asString(p["pattern_broken"]),
	}
	if raw, ok := p["dependency_path"].([]any); ok {
		for _, x := range raw {
			v.DependencyPath = append(v.DependencyPath, asString(x))
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, asString(p["timestamp"])); err == nil {
		v.Timestamp = ts
	}
	return v
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

var _ graph.Repository = (*Neo4jRepository)(nil)
