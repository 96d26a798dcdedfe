package cluster

import (
	"fmt"
	"math/rand/v2"

	"github.com/cdaps/hidef/pkg/graph"
)

// Louvain clusters via the classic Louvain method: greedy local moving from
// a singleton partition, then aggregation of communities into super-nodes,
// repeated until no move improves modularity. Quality is modularity with a
// resolution parameter, so higher resolutions produce finer partitions.
type Louvain struct{}

func (Louvain) Name() string { return "louvain" }

func (Louvain) ClusterOnce(g *graph.Graph, resolution float64, src rand.Source) (Partition, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: louvain requires a positive resolution, got %g", ErrClusteringFailed, resolution)
	}
	rng := rand.New(src)
	wg := newWorkGraph(g)

	// orig maps each original node to its node in the current work graph.
	orig := make([]int, wg.n)
	for i := range orig {
		orig[i] = i
	}

	for level := 0; level < maxAggregationLevels; level++ {
		init := make([]int, wg.n)
		for i := range init {
			init[i] = i
		}
		comm, moves := wg.localMove(init, resolution, rng)
		if moves == 0 {
			break
		}
		for i := range orig {
			orig[i] = comm[orig[i]]
		}
		// Every productive level merges at least two nodes, so the work
		// graph strictly shrinks and the loop terminates.
		wg, _ = wg.aggregate(comm, comm)
	}

	p := make(Partition, len(orig))
	for i := range orig {
		p[int64(i)] = orig[i]
	}
	if err := p.validate(g); err != nil {
		return nil, err
	}
	return p.canonicalize(), nil
}
