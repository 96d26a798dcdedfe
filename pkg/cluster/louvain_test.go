package cluster

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestLouvain_TwoCliques(t *testing.T) {
	g := twoCliques(t, 4)

	p, err := Louvain{}.ClusterOnce(g, 1.0, rand.NewPCG(1, 0))
	if err != nil {
		t.Fatalf("ClusterOnce() error = %v", err)
	}

	comms := p.Communities()
	if len(comms) != 2 {
		t.Fatalf("got %d communities, want 2 (one per clique)", len(comms))
	}
	// Members of one clique must share a community with each other, not
	// with the other side.
	for _, members := range comms {
		side := g.Name(members[0])[0]
		for _, id := range members {
			if g.Name(id)[0] != side {
				t.Errorf("community mixes cliques: %v", names(g, members))
			}
		}
	}
}

func TestLouvain_CoarseResolutionMergesRing(t *testing.T) {
	g := ringGraph(t, 10)

	p, err := Louvain{}.ClusterOnce(g, 0.05, rand.NewPCG(1, 0))
	if err != nil {
		t.Fatalf("ClusterOnce() error = %v", err)
	}
	if got := len(p.Communities()); got != 1 {
		t.Errorf("got %d communities at resolution 0.05, want 1", got)
	}
}

func TestLouvain_NonPositiveResolution(t *testing.T) {
	g := ringGraph(t, 4)
	_, err := Louvain{}.ClusterOnce(g, 0, rand.NewPCG(1, 0))
	if !errors.Is(err, ErrClusteringFailed) {
		t.Errorf("ClusterOnce(res=0) error = %v, want ErrClusteringFailed", err)
	}
}

func TestLouvain_CanonicalLabels(t *testing.T) {
	g := twoCliques(t, 3)

	p, err := Louvain{}.ClusterOnce(g, 1.0, rand.NewPCG(9, 0))
	if err != nil {
		t.Fatalf("ClusterOnce() error = %v", err)
	}
	// Labels must be 0..k-1 ordered by smallest member id.
	comms := p.Communities()
	for label, members := range comms {
		if p[members[0]] != label {
			t.Errorf("label for community %d is %d, want canonical order", label, p[members[0]])
		}
	}
}
