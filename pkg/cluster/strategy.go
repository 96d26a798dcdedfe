package cluster

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cdaps/hidef/pkg/graph"
)

// Partition maps every node id of a graph to a community label. A valid
// partition covers every node exactly once.
type Partition map[int64]int

// Strategy is a single community-detection primitive: one clustering run of
// one graph at one resolution. Implementations must be deterministic given a
// fixed rand source and must not mutate the graph, which is shared across
// parallel sweep workers.
type Strategy interface {
	Name() string
	ClusterOnce(g *graph.Graph, resolution float64, src rand.Source) (Partition, error)
}

// ForName returns the strategy registered under name ("louvain" or "leiden").
func ForName(name string) (Strategy, error) {
	switch name {
	case "louvain":
		return Louvain{}, nil
	case "leiden":
		return Leiden{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrClusteringFailed, name)
	}
}

// Communities groups a partition into member-id lists keyed by label order.
// Lists and their contents are sorted so callers get a stable view.
func (p Partition) Communities() [][]int64 {
	byLabel := make(map[int][]int64)
	for id, label := range p {
		byLabel[label] = append(byLabel[label], id)
	}
	labels := make([]int, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	out := make([][]int64, 0, len(labels))
	for _, label := range labels {
		members := byLabel[label]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		out = append(out, members)
	}
	return out
}

// canonicalize relabels communities 0..k-1 in order of their smallest member
// id. Strategies label communities in library-specific orders; canonical
// labels make equal clusterings compare equal and keep output bytes stable.
func (p Partition) canonicalize() Partition {
	groups := p.Communities()
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	out := make(Partition, len(p))
	for label, members := range groups {
		for _, id := range members {
			out[id] = label
		}
	}
	return out
}

// validate checks partition completeness against the graph node set.
func (p Partition) validate(g *graph.Graph) error {
	if len(p) != g.NodeCount() {
		return fmt.Errorf("%w: partition covers %d of %d nodes", ErrClusteringFailed, len(p), g.NodeCount())
	}
	for _, id := range g.NodeIDs() {
		if _, ok := p[id]; !ok {
			return fmt.Errorf("%w: node %q missing from partition", ErrClusteringFailed, g.Name(id))
		}
	}
	return nil
}
