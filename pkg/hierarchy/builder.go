package hierarchy

import (
	"fmt"
	"sort"

	"github.com/cdaps/hidef/pkg/cluster"
	"github.com/cdaps/hidef/pkg/graph"
	"github.com/cdaps/hidef/pkg/logging"
)

// Builder merges the flat partitions of a resolution sweep into a single
// deduplicated containment hierarchy.
type Builder struct {
	// JaccardThreshold is the member-set similarity at or above which two
	// candidate communities collapse into one hierarchy node.
	JaccardThreshold float64
	// MinSize drops communities smaller than this before pooling.
	MinSize int
	// AddRoot adds a synthetic all-nodes root when no detected community
	// covers the full node set, so the output DAG is always rooted.
	AddRoot bool
}

// candidate is a pooled community during dedup.
type candidate struct {
	members     map[int64]struct{}
	resolutions []float64
}

func (c *candidate) supports(res float64) {
	for _, r := range c.resolutions {
		if r == res {
			return
		}
	}
	c.resolutions = append(c.resolutions, res)
}

// Build produces the hierarchy for a sweep over g. The sweep must be the
// full, resolution-ordered result; partitions are consumed and not retained.
func (b Builder) Build(g *graph.Graph, sweep *cluster.SweepResult) (*Hierarchy, error) {
	var retained []*candidate

	// Pool and dedup. Partitions arrive in resolution order and each
	// partition enumerates communities in canonical order, so the merge
	// sequence is deterministic.
	for step, p := range sweep.Partitions {
		res := sweep.Resolutions[step]
		for _, members := range p.Communities() {
			if len(members) < b.MinSize {
				continue
			}
			set := make(map[int64]struct{}, len(members))
			for _, id := range members {
				set[id] = struct{}{}
			}

			bestIdx, bestSim := -1, 0.0
			for i, r := range retained {
				sim := jaccard(set, r.members)
				if sim >= b.JaccardThreshold && sim > bestSim {
					bestIdx, bestSim = i, sim
				}
			}
			if bestIdx < 0 {
				retained = append(retained, &candidate{members: set, resolutions: []float64{res}})
				continue
			}
			// Union dedup policy: the surviving node absorbs the members
			// and gains the supporting resolution.
			r := retained[bestIdx]
			for id := range set {
				r.members[id] = struct{}{}
			}
			r.supports(res)
		}
	}

	if len(retained) == 0 {
		return nil, fmt.Errorf("%w: no communities of size >= %d survived pooling", ErrInconsistentHierarchy, b.MinSize)
	}

	if b.AddRoot && !coversAll(retained, g.NodeCount()) {
		all := make(map[int64]struct{}, g.NodeCount())
		for _, id := range g.NodeIDs() {
			all[id] = struct{}{}
		}
		retained = append(retained, &candidate{members: all})
		logging.Debug("added synthetic root", "nodes", g.NodeCount())
	}

	h := assemble(g, retained)

	if cycles := newTarjanSCC(h.Edges).findCycles(len(h.Communities)); len(cycles) > 0 {
		return nil, fmt.Errorf("%w: %d containment cycle(s), first involves %d communities",
			ErrInconsistentHierarchy, len(cycles), len(cycles[0]))
	}

	logging.Info("hierarchy built",
		"communities", len(h.Communities), "edges", len(h.Edges),
		"roots", len(h.Roots), "depth", h.Depth())
	return h, nil
}

// assemble orders the retained candidates, wires immediate containment
// edges, and assigns levels, names, and roots.
func assemble(g *graph.Graph, retained []*candidate) *Hierarchy {
	comms := make([]*Community, len(retained))
	for i, r := range retained {
		members := make([]string, 0, len(r.members))
		for id := range r.members {
			members = append(members, g.Name(id))
		}
		sort.Strings(members)
		resolutions := append([]float64(nil), r.resolutions...)
		sort.Float64s(resolutions)
		comms[i] = &Community{
			Members:     members,
			Resolutions: resolutions,
			Persistence: len(resolutions),
		}
	}
	// Largest first, ties by member names: containment edges always point
	// from an earlier community to a later one.
	sort.Slice(comms, func(i, j int) bool {
		if comms[i].Size() != comms[j].Size() {
			return comms[i].Size() > comms[j].Size()
		}
		return lessMembers(comms[i].Members, comms[j].Members)
	})
	sets := make([]map[string]struct{}, len(comms))
	for i, c := range comms {
		c.ID = i
		sets[i] = c.MemberSet()
	}

	// Immediate-containment edges only: a parent is a superset with no
	// other superset strictly between it and the child.
	var edges []Edge
	hasParent := make([]bool, len(comms))
	for child := range comms {
		var supersets []int
		for parent := range comms {
			if parent != child && isSubset(sets[child], sets[parent]) {
				supersets = append(supersets, parent)
			}
		}
		for _, p := range supersets {
			immediate := true
			for _, q := range supersets {
				if q != p && isSubset(sets[q], sets[p]) {
					immediate = false
					break
				}
			}
			if immediate {
				edges = append(edges, Edge{Parent: p, Child: child})
				hasParent[child] = true
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Parent != edges[j].Parent {
			return edges[i].Parent < edges[j].Parent
		}
		return edges[i].Child < edges[j].Child
	})

	// Levels: parents precede children in ID order, so one forward pass
	// settles the longest-path depth.
	for _, e := range edges {
		if comms[e.Child].Level < comms[e.Parent].Level+1 {
			comms[e.Child].Level = comms[e.Parent].Level + 1
		}
	}
	ordinals := make(map[int]int)
	for _, c := range comms {
		c.Name = fmt.Sprintf("Cluster%d-%d", c.Level, ordinals[c.Level])
		ordinals[c.Level]++
	}

	var roots []int
	for id, parented := range hasParent {
		if !parented {
			roots = append(roots, id)
		}
	}
	return &Hierarchy{Communities: comms, Edges: edges, Roots: roots}
}

func jaccard(a, b map[int64]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for id := range small {
		if _, ok := large[id]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func isSubset(sub, super map[string]struct{}) bool {
	if len(sub) > len(super) {
		return false
	}
	for m := range sub {
		if _, ok := super[m]; !ok {
			return false
		}
	}
	return true
}

func coversAll(retained []*candidate, n int) bool {
	for _, r := range retained {
		if len(r.members) == n {
			return true
		}
	}
	return false
}

func lessMembers(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
