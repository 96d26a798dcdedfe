package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cdaps/hidef/pkg/hierarchy"
)

// This package is the CDAPS compatibility surface. The nodes and edges
// tables follow the HiDeF file layout exactly:
//
//	<cluster name>\t<size>\t<space-joined members>\t<persistence>
//	<parent name>\t<child name>\tdefault
//
// and the COMMUNITYDETECTRESULT stream remaps cluster names to integer ids
// above the highest member node id, emitting "id,member,c-m;" for every
// membership and "parent,child,c-c;" for every containment edge, terminated
// by a single newline. Field order and naming must not change; downstream
// tools parse these bytes.

// WriteNodes writes the nodes table. Rows are ordered by community id.
func WriteNodes(w io.Writer, h *hierarchy.Hierarchy) error {
	bw := bufio.NewWriter(w)
	for _, c := range h.Communities {
		_, err := fmt.Fprintf(bw, "%s\t%d\t%s\t%d\n",
			c.Name, c.Size(), strings.Join(c.Members, " "), c.Persistence)
		if err != nil {
			return fmt.Errorf("%w: nodes table: %v", ErrSerialization, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: nodes table: %v", ErrSerialization, err)
	}
	return nil
}

// WriteEdges writes the edges table. Rows are ordered by (parent, child) id.
func WriteEdges(w io.Writer, h *hierarchy.Hierarchy) error {
	bw := bufio.NewWriter(w)
	for _, e := range h.Edges {
		_, err := fmt.Fprintf(bw, "%s\t%s\tdefault\n",
			h.Communities[e.Parent].Name, h.Communities[e.Child].Name)
		if err != nil {
			return fmt.Errorf("%w: edges table: %v", ErrSerialization, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: edges table: %v", ErrSerialization, err)
	}
	return nil
}

// WriteFiles writes <prefix>.nodes and <prefix>.edges. Both tables are
// written to temporary names and renamed only after both succeed, so a
// failed run never leaves a partial hierarchy on disk.
func WriteFiles(prefix string, h *hierarchy.Hierarchy) error {
	nodesTmp := prefix + ".nodes.tmp"
	edgesTmp := prefix + ".edges.tmp"
	if err := writeFile(nodesTmp, h, WriteNodes); err != nil {
		return err
	}
	if err := writeFile(edgesTmp, h, WriteEdges); err != nil {
		os.Remove(nodesTmp)
		return err
	}
	if err := os.Rename(nodesTmp, prefix+".nodes"); err != nil {
		os.Remove(nodesTmp)
		os.Remove(edgesTmp)
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := os.Rename(edgesTmp, prefix+".edges"); err != nil {
		os.Remove(edgesTmp)
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

func writeFile(path string, h *hierarchy.Hierarchy, write func(io.Writer, *hierarchy.Hierarchy) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := write(f, h); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

// WriteCDAPS writes the COMMUNITYDETECTRESULT stream. Cluster ids are
// assigned above the highest member node id, in community id order. When the
// input graph's node names are not all integers, members are first mapped to
// dense integers in sorted-name order.
func WriteCDAPS(w io.Writer, h *hierarchy.Hierarchy) error {
	memberID, maxNodeID := memberIDs(h)

	clusterID := make(map[int]int, len(h.Communities))
	next := maxNodeID + 1
	for _, c := range h.Communities {
		clusterID[c.ID] = next
		next++
	}

	bw := bufio.NewWriter(w)
	for _, c := range h.Communities {
		for _, m := range c.Members {
			if _, err := fmt.Fprintf(bw, "%d,%d,c-m;", clusterID[c.ID], memberID[m]); err != nil {
				return fmt.Errorf("%w: %v", ErrSerialization, err)
			}
		}
	}
	for _, e := range h.Edges {
		if _, err := fmt.Fprintf(bw, "%d,%d,c-c;", clusterID[e.Parent], clusterID[e.Child]); err != nil {
			return fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

// memberIDs maps every member name to an integer id and returns the highest
// id in use. Integer names are kept as-is; otherwise names get dense ids.
func memberIDs(h *hierarchy.Hierarchy) (map[string]int, int) {
	names := make(map[string]struct{})
	for _, c := range h.Communities {
		for _, m := range c.Members {
			names[m] = struct{}{}
		}
	}

	ids := make(map[string]int, len(names))
	allInts := true
	maxID := 0
	for m := range names {
		id, err := strconv.Atoi(m)
		if err != nil {
			allInts = false
			break
		}
		ids[m] = id
		if id > maxID {
			maxID = id
		}
	}
	if allInts {
		return ids, maxID
	}

	sorted := make([]string, 0, len(names))
	for m := range names {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)
	ids = make(map[string]int, len(sorted))
	for i, m := range sorted {
		ids[m] = i
	}
	return ids, len(sorted) - 1
}
