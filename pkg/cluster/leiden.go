package cluster

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cdaps/hidef/pkg/graph"
)

// Leiden clusters via a native Leiden implementation: a local-moving phase, a
// refinement phase constrained to the communities found by local moving, and
// aggregation of the refined partition into super-nodes, repeated until the
// partition is stable. Quality is modularity with a resolution parameter.
type Leiden struct{}

func (Leiden) Name() string { return "leiden" }

// maxAggregationLevels bounds the aggregation recursion; real inputs
// converge in a handful of levels, so hitting the bound means
// non-convergence.
const maxAggregationLevels = 64

const gainEps = 1e-12

func (Leiden) ClusterOnce(g *graph.Graph, resolution float64, src rand.Source) (Partition, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: leiden requires a positive resolution, got %g", ErrClusteringFailed, resolution)
	}
	rng := rand.New(src)
	wg := newWorkGraph(g)

	// orig maps each original node to its node in the current work graph.
	orig := make([]int, wg.n)
	init := make([]int, wg.n)
	for i := range orig {
		orig[i] = i
		init[i] = i
	}

	var comm []int
	converged := false
	for level := 0; level < maxAggregationLevels; level++ {
		var moves int
		comm, moves = wg.localMove(init, resolution, rng)
		if moves == 0 {
			converged = true
			break
		}
		refined := wg.refine(comm, resolution, rng)
		if labelCount(refined) == wg.n {
			// Refinement kept every node separate; aggregation would not
			// shrink the graph.
			converged = true
			break
		}
		for i := range orig {
			orig[i] = refined[orig[i]]
		}
		wg, init = wg.aggregate(refined, comm)
		comm = nil
	}
	if !converged && comm == nil {
		return nil, fmt.Errorf("%w: leiden did not converge at resolution %g", ErrClusteringFailed, resolution)
	}
	if comm == nil {
		comm = init
	}

	p := make(Partition, len(orig))
	for i := range orig {
		p[int64(i)] = comm[orig[i]]
	}
	if err := p.validate(g); err != nil {
		return nil, err
	}
	return p.canonicalize(), nil
}

type workEdge struct {
	to     int
	weight float64
}

// workGraph is the dense aggregated graph Leiden iterates on. Node indices
// are 0..n-1; self weights accumulate internal edge mass during aggregation.
type workGraph struct {
	n      int
	adj    [][]workEdge
	selfW  []float64
	degree []float64
	total  float64 // total edge weight m, invariant across aggregation
}

func newWorkGraph(g *graph.Graph) *workGraph {
	n := g.NodeCount()
	wg := &workGraph{
		n:      n,
		adj:    make([][]workEdge, n),
		selfW:  make([]float64, n),
		degree: make([]float64, n),
		total:  g.TotalWeight(),
	}
	for _, id := range g.NodeIDs() {
		i := int(id)
		g.Neighbors(id, func(v int64, w float64) {
			wg.adj[i] = append(wg.adj[i], workEdge{to: int(v), weight: w})
			wg.degree[i] += w
		})
		// gonum neighbor iteration order is not stable
		sort.Slice(wg.adj[i], func(a, b int) bool { return wg.adj[i][a].to < wg.adj[i][b].to })
	}
	return wg
}

// localMove greedily moves nodes to the neighboring community with the best
// modularity gain, revisiting neighbors of moved nodes until no move helps.
// Returns the compacted assignment and the number of moves made.
func (wg *workGraph) localMove(init []int, resolution float64, rng *rand.Rand) ([]int, int) {
	comm := append([]int(nil), init...)
	commTot := make([]float64, wg.n)
	for i, c := range comm {
		commTot[c] += wg.degree[i] + 2*wg.selfW[i]
	}

	queue := rng.Perm(wg.n)
	inQueue := make([]bool, wg.n)
	for _, i := range queue {
		inQueue[i] = true
	}

	moves := 0
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		inQueue[i] = false

		neighComms, wTo := wg.weightsToCommunities(i, comm, nil)
		cur := comm[i]
		ki := wg.degree[i] + 2*wg.selfW[i]
		commTot[cur] -= ki

		best, bestGain := cur, wTo[cur]-resolution*ki*commTot[cur]/(2*wg.total)
		for _, c := range neighComms {
			if c == cur {
				continue
			}
			gain := wTo[c] - resolution*ki*commTot[c]/(2*wg.total)
			if gain > bestGain+gainEps {
				best, bestGain = c, gain
			}
		}

		comm[i] = best
		commTot[best] += ki
		if best == cur {
			continue
		}
		moves++
		for _, e := range wg.adj[i] {
			if comm[e.to] != best && !inQueue[e.to] {
				queue = append(queue, e.to)
				inQueue[e.to] = true
			}
		}
	}
	return compactLabels(comm), moves
}

// refine re-partitions each community from singletons, merging a node only
// with refined groups inside its own community. Only nodes still in a
// singleton group may move, which keeps the refinement well-separated.
func (wg *workGraph) refine(comm []int, resolution float64, rng *rand.Rand) []int {
	refined := make([]int, wg.n)
	refTot := make([]float64, wg.n)
	refSize := make([]int, wg.n)
	for i := range refined {
		refined[i] = i
		refTot[i] = wg.degree[i] + 2*wg.selfW[i]
		refSize[i] = 1
	}

	for _, i := range rng.Perm(wg.n) {
		if refSize[refined[i]] > 1 {
			continue
		}
		groups, wTo := wg.weightsToCommunities(i, refined, func(j int) bool { return comm[j] == comm[i] })

		cur := refined[i]
		ki := refTot[cur]
		best, bestGain := cur, 0.0
		for _, rc := range groups {
			if rc == cur {
				continue
			}
			gain := wTo[rc] - resolution*ki*refTot[rc]/(2*wg.total)
			if gain > bestGain+gainEps {
				best, bestGain = rc, gain
			}
		}
		if best == cur {
			continue
		}
		refSize[cur]--
		refTot[cur] -= ki
		refined[i] = best
		refSize[best]++
		refTot[best] += ki
	}
	return compactLabels(refined)
}

// weightsToCommunities sums edge weight from i to each community under
// assign, visiting only neighbors accepted by keep (nil keeps all). The
// community list is sorted so gain comparisons are order-stable.
func (wg *workGraph) weightsToCommunities(i int, assign []int, keep func(j int) bool) ([]int, map[int]float64) {
	wTo := make(map[int]float64)
	for _, e := range wg.adj[i] {
		if keep != nil && !keep(e.to) {
			continue
		}
		wTo[assign[e.to]] += e.weight
	}
	comms := make([]int, 0, len(wTo))
	for c := range wTo {
		comms = append(comms, c)
	}
	sort.Ints(comms)
	return comms, wTo
}

// aggregate collapses each refined group into a super-node. The returned
// assignment seeds the next local-moving phase with the coarse communities,
// which refinement guarantees are unions of whole refined groups.
func (wg *workGraph) aggregate(refined, comm []int) (*workGraph, []int) {
	k := labelCount(refined)
	next := &workGraph{
		n:      k,
		adj:    make([][]workEdge, k),
		selfW:  make([]float64, k),
		degree: make([]float64, k),
		total:  wg.total,
	}

	acc := make([]map[int]float64, k)
	for i := 0; i < wg.n; i++ {
		ri := refined[i]
		next.selfW[ri] += wg.selfW[i]
		for _, e := range wg.adj[i] {
			if e.to < i {
				continue // each undirected edge once
			}
			rj := refined[e.to]
			if ri == rj {
				next.selfW[ri] += e.weight
				continue
			}
			if acc[ri] == nil {
				acc[ri] = make(map[int]float64)
			}
			if acc[rj] == nil {
				acc[rj] = make(map[int]float64)
			}
			acc[ri][rj] += e.weight
			acc[rj][ri] += e.weight
		}
	}
	for s := 0; s < k; s++ {
		tos := make([]int, 0, len(acc[s]))
		for to := range acc[s] {
			tos = append(tos, to)
		}
		sort.Ints(tos)
		for _, to := range tos {
			next.adj[s] = append(next.adj[s], workEdge{to: to, weight: acc[s][to]})
			next.degree[s] += acc[s][to]
		}
	}

	init := make([]int, k)
	for i, r := range refined {
		init[r] = comm[i]
	}
	return next, compactLabels(init)
}

// compactLabels relabels to 0..k-1 by first occurrence.
func compactLabels(assign []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(assign))
	for i, c := range assign {
		label, ok := remap[c]
		if !ok {
			label = len(remap)
			remap[c] = label
		}
		out[i] = label
	}
	return out
}

func labelCount(assign []int) int {
	seen := make(map[int]struct{})
	for _, c := range assign {
		seen[c] = struct{}{}
	}
	return len(seen)
}
