package hierarchy

import "sort"

// Community is a node of the containment hierarchy: a deduplicated member
// set together with the resolutions that produced it.
type Community struct {
	ID          int
	Name        string // HiDeF-style "Cluster<level>-<ordinal>"
	Level       int
	Members     []string // sorted node names
	Resolutions []float64
	Persistence int // number of distinct supporting resolutions
}

// Size returns the number of members.
func (c *Community) Size() int { return len(c.Members) }

// MemberSet returns the members as a set.
func (c *Community) MemberSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		set[m] = struct{}{}
	}
	return set
}

// Edge is a containment edge: Child's members are a subset of Parent's.
type Edge struct {
	Parent int
	Child  int
}

// Hierarchy is the DAG of retained communities. Communities are indexed by
// their ID; Roots lists the IDs with no parent.
type Hierarchy struct {
	Communities []*Community
	Edges       []Edge
	Roots       []int
}

// Community returns the community with the given id, or nil.
func (h *Hierarchy) Community(id int) *Community {
	if id < 0 || id >= len(h.Communities) {
		return nil
	}
	return h.Communities[id]
}

// ByName returns the community with the given name, or nil.
func (h *Hierarchy) ByName(name string) *Community {
	for _, c := range h.Communities {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Children returns the child ids of a community, sorted.
func (h *Hierarchy) Children(id int) []int {
	var out []int
	for _, e := range h.Edges {
		if e.Parent == id {
			out = append(out, e.Child)
		}
	}
	sort.Ints(out)
	return out
}

// Depth returns the maximum level over all communities.
func (h *Hierarchy) Depth() int {
	depth := 0
	for _, c := range h.Communities {
		if c.Level > depth {
			depth = c.Level
		}
	}
	return depth
}
