package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the weighted undirected input graph for community detection.
// Node names are interned to dense int64 ids (0..n-1 in insertion order) so
// the clustering strategies can work with array-backed state. The underlying
// storage is a gonum graph.
type Graph struct {
	g      *simple.WeightedUndirectedGraph
	ids    map[string]int64 // node name -> graph id
	names  map[int64]string // graph id -> node name
	nextID int64

	edgeCount   int
	totalWeight float64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewWeightedUndirectedGraph(0, 0),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// AddNode interns a node name and returns its id. Adding an existing name is
// a no-op returning the previously assigned id.
func (g *Graph) AddNode(name string) int64 {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := g.nextID
	g.nextID++
	g.ids[name] = id
	g.names[id] = name
	g.g.AddNode(simple.Node(id))
	return id
}

// AddEdge adds a weighted undirected edge between two named nodes, interning
// the names as needed. Self-loops and duplicate direction-agnostic pairs are
// rejected.
func (g *Graph) AddEdge(a, b string, weight float64) error {
	if a == b {
		return fmt.Errorf("%w: self-loop on node %q", ErrMalformedInput, a)
	}
	if weight < 0 {
		return fmt.Errorf("%w: negative weight %g on edge %q-%q", ErrMalformedInput, weight, a, b)
	}
	ua := g.AddNode(a)
	ub := g.AddNode(b)
	if g.g.HasEdgeBetween(ua, ub) {
		return fmt.Errorf("%w: duplicate edge %q-%q", ErrMalformedInput, a, b)
	}
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(ua), simple.Node(ub), weight))
	g.edgeCount++
	g.totalWeight += weight
	return nil
}

// ID returns the interned id for a node name.
func (g *Graph) ID(name string) (int64, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Name returns the original name for an interned id, or the empty string if
// the id is unknown.
func (g *Graph) Name(id int64) string {
	return g.names[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.ids)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// TotalWeight returns the sum of all edge weights.
func (g *Graph) TotalWeight() float64 {
	return g.totalWeight
}

// NodeIDs returns all interned node ids in ascending order.
func (g *Graph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.names))
	for id := range g.names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Weight returns the weight of the edge between u and v, or 0 if there is no
// such edge.
func (g *Graph) Weight(u, v int64) float64 {
	if u == v {
		return 0
	}
	w, ok := g.g.Weight(u, v)
	if !ok {
		return 0
	}
	return w
}

// Neighbors calls fn for every neighbor of u with the connecting edge weight.
// Iteration order is unspecified; callers needing determinism must sort.
func (g *Graph) Neighbors(u int64, fn func(v int64, weight float64)) {
	it := g.g.From(u)
	for it.Next() {
		v := it.Node().ID()
		w, _ := g.g.Weight(u, v)
		fn(v, w)
	}
}

// Degree returns the weighted degree of u.
func (g *Graph) Degree(u int64) float64 {
	var d float64
	g.Neighbors(u, func(_ int64, w float64) { d += w })
	return d
}

// Underlying exposes the gonum graph for interoperation with gonum
// primitives.
func (g *Graph) Underlying() *simple.WeightedUndirectedGraph {
	return g.g
}
