package depgraph

import "sort"

// FindCycles returns every elementary cycle exactly once. Each cycle starts
// at its smallest module ID; the list is sorted by first ID, then length,
// then the remaining IDs.
func (g *Graph) FindCycles() [][]string {
	return g.FindCyclesLimit(0)
}

// FindCyclesLimit is FindCycles stopping after limit cycles. A limit of zero
// or less means no limit.
//
// Cycles are enumerated with Johnson's algorithm over the nodes in ID
// order: the cycles rooted at vertex s are searched inside the strongly
// connected component of s in the subgraph of vertices >= s, so s is always
// the smallest vertex of the cycles it roots.
func (g *Graph) FindCyclesLimit(limit int) [][]string {
	ids := g.IDs()
	n := len(ids)
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	adj := make([][]int, n)
	radj := make([][]int, n)
	for i, id := range ids {
		for _, succ := range g.Successors(id) {
			j := index[succ]
			adj[i] = append(adj[i], j)
			radj[j] = append(radj[j], i)
		}
	}

	j := &johnson{
		adj:     adj,
		blocked: make([]bool, n),
		b:       make([]map[int]bool, n),
		inComp:  make([]bool, n),
		limit:   limit,
	}
	for s := 0; s < n && !j.full(); s++ {
		comp := sccOf(s, adj, radj)
		if len(comp) == 1 && !contains(adj[s], s) {
			continue
		}
		for i := range j.inComp {
			j.inComp[i] = false
		}
		for _, v := range comp {
			j.inComp[v] = true
			j.blocked[v] = false
			j.b[v] = nil
		}
		j.start = s
		j.circuit(s)
	}

	cycles := make([][]string, 0, len(j.cycles))
	for _, c := range j.cycles {
		cycle := make([]string, len(c))
		for i, v := range c {
			cycle[i] = ids[v]
		}
		cycles = append(cycles, cycle)
	}
	sortCycles(cycles)
	return cycles
}

type johnson struct {
	adj     [][]int
	blocked []bool
	b       []map[int]bool
	inComp  []bool
	stack   []int
	start   int
	cycles  [][]int
	limit   int
}

func (j *johnson) full() bool {
	return j.limit > 0 && len(j.cycles) >= j.limit
}

func (j *johnson) circuit(v int) bool {
	found := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true
	for _, w := range j.adj[v] {
		if !j.inComp[w] || j.full() {
			continue
		}
		if w == j.start {
			j.cycles = append(j.cycles, append([]int(nil), j.stack...))
			found = true
		} else if !j.blocked[w] && j.circuit(w) {
			found = true
		}
	}
	if found {
		j.unblock(v)
	} else {
		for _, w := range j.adj[v] {
			if !j.inComp[w] {
				continue
			}
			if j.b[w] == nil {
				j.b[w] = make(map[int]bool)
			}
			j.b[w][v] = true
		}
	}
	j.stack = j.stack[:len(j.stack)-1]
	return found
}

func (j *johnson) unblock(u int) {
	j.blocked[u] = false
	for w := range j.b[u] {
		delete(j.b[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}

// sccOf returns the strongly connected component of s within the subgraph
// induced by vertices >= s.
func sccOf(s int, adj, radj [][]int) []int {
	fwd := reach(s, adj)
	bwd := reach(s, radj)
	var comp []int
	for v := range fwd {
		if bwd[v] {
			comp = append(comp, v)
		}
	}
	sort.Ints(comp)
	return comp
}

func reach(s int, adj [][]int) map[int]bool {
	seen := map[int]bool{s: true}
	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if w < s || seen[w] {
				continue
			}
			seen[w] = true
			queue = append(queue, w)
		}
	}
	return seen
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// CanonicalCycle rotates a cycle so its smallest ID comes first.
func CanonicalCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return nil
	}
	lo := 0
	for i, id := range cycle {
		if id < cycle[lo] {
			lo = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[lo:]...)
	return append(out, cycle[:lo]...)
}

func sortCycles(cycles [][]string) {
	sort.Slice(cycles, func(a, b int) bool {
		x, y := cycles[a], cycles[b]
		if x[0] != y[0] {
			return x[0] < y[0]
		}
		if len(x) != len(y) {
			return len(x) < len(y)
		}
		for i := range x {
			if x[i] != y[i] {
				return x[i] < y[i]
			}
		}
		return false
	})
}
