package hierarchy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdaps/hidef/pkg/cluster"
	"github.com/cdaps/hidef/pkg/graph"
)

// lineGraph builds a path of n integer-named nodes (ids 0..n-1).
func lineGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := 0; i < n-1; i++ {
		require.NoError(t, g.AddEdge(fmt.Sprintf("%d", i), fmt.Sprintf("%d", i+1), 1.0))
	}
	return g
}

func sweepOf(resolutions []float64, partitions ...cluster.Partition) *cluster.SweepResult {
	return &cluster.SweepResult{Resolutions: resolutions, Partitions: partitions}
}

func TestBuild_DedupAccumulatesPersistence(t *testing.T) {
	g := lineGraph(t, 6)
	// The same split detected at both resolutions.
	p := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}
	b := Builder{JaccardThreshold: 0.75, MinSize: 2, AddRoot: true}

	h, err := b.Build(g, sweepOf([]float64{0.5, 1.0}, p, p))
	require.NoError(t, err)

	// Two detected communities plus the synthetic root.
	require.Len(t, h.Communities, 3)
	root := h.Communities[h.Roots[0]]
	assert.Equal(t, 6, root.Size())
	assert.Equal(t, 0, root.Persistence)

	for _, c := range h.Communities {
		if c.ID == root.ID {
			continue
		}
		assert.Equal(t, 2, c.Persistence, "community %s should be supported by both resolutions", c.Name)
		assert.Equal(t, []float64{0.5, 1.0}, c.Resolutions)
	}
}

func TestBuild_JaccardMergesNearIdentical(t *testing.T) {
	g := lineGraph(t, 6)
	// {0..3} vs {0..4}: jaccard 4/5 = 0.8, above the 0.75 threshold.
	pa := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1}
	pb := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 1}
	b := Builder{JaccardThreshold: 0.75, MinSize: 4, AddRoot: false}

	h, err := b.Build(g, sweepOf([]float64{0.5, 1.0}, pa, pb))
	require.NoError(t, err)

	require.Len(t, h.Communities, 1)
	merged := h.Communities[0]
	// Union dedup policy.
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, merged.Members)
	assert.Equal(t, 2, merged.Persistence)
}

func TestBuild_ImmediateContainmentOnly(t *testing.T) {
	g := lineGraph(t, 6)
	all := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	mid := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1}
	fine := cluster.Partition{0: 0, 1: 0, 2: 1, 3: 1, 4: 2, 5: 2}
	// Threshold high enough that nothing merges.
	b := Builder{JaccardThreshold: 0.95, MinSize: 2, AddRoot: true}

	h, err := b.Build(g, sweepOf([]float64{0.1, 0.5, 1.0}, all, mid, fine))
	require.NoError(t, err)

	byName := func(id int) string { return h.Communities[id].Name }
	edges := make(map[string]bool)
	for _, e := range h.Edges {
		edges[byName(e.Parent)+">"+byName(e.Child)] = true
	}

	full := h.Communities[h.Roots[0]]
	require.Equal(t, 6, full.Size())

	// {0..5} contains {0..3} contains {0,1}: the transitive edge from the
	// full set to {0,1} must be pruned.
	var mid4, fine01 *Community
	for _, c := range h.Communities {
		switch {
		case c.Size() == 4:
			mid4 = c
		case c.Size() == 2 && c.Members[0] == "0":
			fine01 = c
		}
	}
	require.NotNil(t, mid4)
	require.NotNil(t, fine01)
	assert.True(t, edges[full.Name+">"+mid4.Name])
	assert.True(t, edges[mid4.Name+">"+fine01.Name])
	assert.False(t, edges[full.Name+">"+fine01.Name], "transitive edge must be pruned")
}

func TestBuild_ContainmentInvariant(t *testing.T) {
	g := lineGraph(t, 8)
	coarse := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1, 6: 1, 7: 1}
	fine := cluster.Partition{0: 0, 1: 0, 2: 1, 3: 1, 4: 2, 5: 2, 6: 3, 7: 3}
	b := Builder{JaccardThreshold: 0.9, MinSize: 2, AddRoot: true}

	h, err := b.Build(g, sweepOf([]float64{0.2, 2.0}, coarse, fine))
	require.NoError(t, err)

	for _, e := range h.Edges {
		parent := h.Communities[e.Parent].MemberSet()
		for _, m := range h.Communities[e.Child].Members {
			_, ok := parent[m]
			assert.True(t, ok, "edge %s -> %s violates containment on member %s",
				h.Communities[e.Parent].Name, h.Communities[e.Child].Name, m)
		}
	}
}

func TestBuild_MinSizeDropsSingletons(t *testing.T) {
	g := lineGraph(t, 5)
	p := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0, 4: 1} // {4} is a singleton
	b := Builder{JaccardThreshold: 0.75, MinSize: 2, AddRoot: false}

	h, err := b.Build(g, sweepOf([]float64{1.0}, p))
	require.NoError(t, err)

	require.Len(t, h.Communities, 1)
	assert.Equal(t, 4, h.Communities[0].Size())
}

func TestBuild_NoSyntheticRootWhenCovered(t *testing.T) {
	g := lineGraph(t, 4)
	all := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0}
	b := Builder{JaccardThreshold: 0.75, MinSize: 2, AddRoot: true}

	h, err := b.Build(g, sweepOf([]float64{0.1}, all))
	require.NoError(t, err)

	require.Len(t, h.Communities, 1)
	assert.Equal(t, 4, h.Communities[0].Size())
	assert.Equal(t, 1, h.Communities[0].Persistence, "detected cover must not be replaced by a synthetic root")
}

func TestBuild_LevelsAndNames(t *testing.T) {
	g := lineGraph(t, 6)
	mid := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 1, 4: 1, 5: 1}
	b := Builder{JaccardThreshold: 0.75, MinSize: 2, AddRoot: true}

	h, err := b.Build(g, sweepOf([]float64{1.0}, mid))
	require.NoError(t, err)

	root := h.Communities[h.Roots[0]]
	assert.Equal(t, "Cluster0-0", root.Name)
	assert.Equal(t, 0, root.Level)

	children := h.Children(root.ID)
	require.Len(t, children, 2)
	assert.Equal(t, "Cluster1-0", h.Communities[children[0]].Name)
	assert.Equal(t, "Cluster1-1", h.Communities[children[1]].Name)
	assert.Equal(t, 1, h.Depth())
}

func TestBuild_DisabledDedupDetectedAsInconsistent(t *testing.T) {
	g := lineGraph(t, 4)
	all := cluster.Partition{0: 0, 1: 0, 2: 0, 3: 0}
	// A threshold above 1 can never merge, so identical member sets
	// survive and contain each other.
	b := Builder{JaccardThreshold: 1.1, MinSize: 2, AddRoot: false}

	_, err := b.Build(g, sweepOf([]float64{0.5, 1.0}, all, all))
	assert.ErrorIs(t, err, ErrInconsistentHierarchy)
}

func TestTarjan_DetectsCycle(t *testing.T) {
	edges := []Edge{{Parent: 0, Child: 1}, {Parent: 1, Child: 2}, {Parent: 2, Child: 0}}
	cycles := newTarjanSCC(edges).findCycles(3)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 3)
}

func TestTarjan_AcyclicDAG(t *testing.T) {
	edges := []Edge{{Parent: 0, Child: 1}, {Parent: 0, Child: 2}, {Parent: 1, Child: 3}, {Parent: 2, Child: 3}}
	assert.Empty(t, newTarjanSCC(edges).findCycles(4))
}
