package hierarchy

// tarjanSCC finds strongly connected components in the containment DAG
// candidate. Any component with more than one community is a containment
// cycle, which a well-formed hierarchy can never have.
type tarjanSCC struct {
	adj     map[int][]int
	index   int
	stack   []int
	onStack map[int]bool
	indices map[int]int
	lowLink map[int]int
	cycles  [][]int
}

func newTarjanSCC(edges []Edge) *tarjanSCC {
	adj := make(map[int][]int)
	for _, e := range edges {
		adj[e.Parent] = append(adj[e.Parent], e.Child)
	}
	return &tarjanSCC{
		adj:     adj,
		onStack: make(map[int]bool),
		indices: make(map[int]int),
		lowLink: make(map[int]int),
	}
}

// findCycles returns every strongly connected component of size > 1.
func (t *tarjanSCC) findCycles(n int) [][]int {
	for id := 0; id < n; id++ {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.cycles
}

func (t *tarjanSCC) strongConnect(id int) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, next := range t.adj[id] {
		if _, visited := t.indices[next]; !visited {
			t.strongConnect(next)
			t.lowLink[id] = min(t.lowLink[id], t.lowLink[next])
		} else if t.onStack[next] {
			t.lowLink[id] = min(t.lowLink[id], t.indices[next])
		}
	}

	if t.lowLink[id] == t.indices[id] {
		var scc []int
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		if len(scc) > 1 {
			t.cycles = append(t.cycles, scc)
		}
	}
}
