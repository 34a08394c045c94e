package depgraph

// Stats computes graph metrics.
func (g *Graph) Stats() Stats {
	st := Stats{
		Nodes:      len(g.nodes),
		Edges:      len(g.edges),
		IsDAG:      g.IsAcyclic(),
		Components: g.countComponents(),
	}

	pairs := 0
	for _, id := range g.IDs() {
		out := len(g.out[id])
		pairs += out
		if out > st.MaxFanOut {
			st.MaxFanOut = out
			st.Hotspot = id
		}
		if in := len(g.in[id]); in > st.MaxFanIn {
			st.MaxFanIn = in
		}
	}
	if n := len(g.nodes); n > 1 {
		st.Density = float64(pairs) / float64(n*(n-1))
	}
	return st
}

// IsAcyclic reports whether the graph has no cycle, self-loops included.
func (g *Graph) IsAcyclic() bool {
	indeg := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = len(g.in[id])
	}
	var queue []string
	for id, d := range indeg {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for next := range g.out[id] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return visited == len(g.nodes)
}

// countComponents counts weakly connected components via union-find
func (g *Graph) countComponents() int {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for id := range g.nodes {
		find(id)
	}
	for _, e := range g.edges {
		union(e.Source, e.Target)
	}

	roots := make(map[string]bool)
	for id := range g.nodes {
		roots[find(id)] = true
	}
	return len(roots)
}
