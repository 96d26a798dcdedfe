package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/cdaps/hidef/pkg/hierarchy"
)

// PrintSummary prints a colorized console report of the hierarchy.
func PrintSummary(w io.Writer, h *hierarchy.Hierarchy) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Community Hierarchy")
	bold.Fprintln(w, "===================")
	fmt.Fprintf(w, "Communities: %d\n", len(h.Communities))
	fmt.Fprintf(w, "Containment edges: %d\n", len(h.Edges))
	fmt.Fprintf(w, "Depth: %d\n", h.Depth())
	fmt.Fprintln(w)

	green.Fprintf(w, "Roots: %d\n", len(h.Roots))
	for _, id := range h.Roots {
		c := h.Communities[id]
		cyan.Fprintf(w, "  %s", c.Name)
		fmt.Fprintf(w, "  %d members, persistence %d\n", c.Size(), c.Persistence)
	}
	fmt.Fprintln(w)

	// Persistence distribution, most robust communities first
	counts := make(map[int]int)
	for _, c := range h.Communities {
		counts[c.Persistence]++
	}
	scores := make([]int, 0, len(counts))
	for s := range counts {
		scores = append(scores, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	yellow.Fprintln(w, "Persistence distribution:")
	for _, s := range scores {
		fmt.Fprintf(w, "  %d resolution(s): %d communities\n", s, counts[s])
	}
}
