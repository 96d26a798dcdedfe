package output

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cdaps/hidef/pkg/hierarchy"
)

// ReadHierarchy reconstructs a Hierarchy from its nodes and edges tables.
// The result is isomorphic to the serialized hierarchy: same member sets,
// same containment relation. Resolution values are not part of the tables
// and are not recovered.
func ReadHierarchy(nodes, edges io.Reader) (*hierarchy.Hierarchy, error) {
	h := &hierarchy.Hierarchy{}
	byName := make(map[string]int)

	sc := bufio.NewScanner(nodes)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if line == "" {
			continue
		}
		c, err := parseNodeRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: nodes table line %d: %v", ErrSerialization, lineNum, err)
		}
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: nodes table line %d: duplicate cluster %q", ErrSerialization, lineNum, c.Name)
		}
		c.ID = len(h.Communities)
		byName[c.Name] = c.ID
		h.Communities = append(h.Communities, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading nodes table: %v", ErrSerialization, err)
	}

	hasParent := make([]bool, len(h.Communities))
	sc = bufio.NewScanner(edges)
	lineNum = 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: edges table line %d: expected 3 fields, got %d", ErrSerialization, lineNum, len(fields))
		}
		parent, ok := byName[fields[0]]
		if !ok {
			return nil, fmt.Errorf("%w: edges table line %d: unknown cluster %q", ErrSerialization, lineNum, fields[0])
		}
		child, ok := byName[fields[1]]
		if !ok {
			return nil, fmt.Errorf("%w: edges table line %d: unknown cluster %q", ErrSerialization, lineNum, fields[1])
		}
		h.Edges = append(h.Edges, hierarchy.Edge{Parent: parent, Child: child})
		hasParent[child] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading edges table: %v", ErrSerialization, err)
	}

	for id, parented := range hasParent {
		if !parented {
			h.Roots = append(h.Roots, id)
		}
	}
	return h, nil
}

// parseNodeRow parses "<name>\t<size>\t<members>\t<persistence>".
func parseNodeRow(line string) (*hierarchy.Community, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return nil, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("bad size %q", fields[1])
	}
	members := strings.Fields(fields[2])
	if len(members) == 0 {
		return nil, fmt.Errorf("cluster %q has no members", fields[0])
	}
	if size != len(members) {
		return nil, fmt.Errorf("cluster %q declares size %d but lists %d members", fields[0], size, len(members))
	}
	persistence, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("bad persistence %q", fields[3])
	}
	sort.Strings(members)

	c := &hierarchy.Community{
		Name:        fields[0],
		Members:     members,
		Persistence: persistence,
	}
	// Cluster names carry the level: "Cluster<level>-<ordinal>".
	if rest, ok := strings.CutPrefix(c.Name, "Cluster"); ok {
		if lvl, _, ok := strings.Cut(rest, "-"); ok {
			if l, err := strconv.Atoi(lvl); err == nil {
				c.Level = l
			}
		}
	}
	return c, nil
}
