package graph

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad_WeightedAndDefaultEdges(t *testing.T) {
	input := "a b 2.5\nb c\n# comment line\n\nc d 0.5\n"

	g, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}

	ua, _ := g.ID("a")
	ub, _ := g.ID("b")
	if w := g.Weight(ua, ub); w != 2.5 {
		t.Errorf("Weight(a, b) = %g, want 2.5", w)
	}

	// Unspecified weight defaults to 1.0
	uc, _ := g.ID("c")
	if w := g.Weight(ub, uc); w != 1.0 {
		t.Errorf("Weight(b, c) = %g, want 1.0", w)
	}

	if total := g.TotalWeight(); total != 4.0 {
		t.Errorf("TotalWeight() = %g, want 4.0", total)
	}
}

func TestLoad_EmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(empty) error = %v, want ErrMalformedInput", err)
	}
}

func TestLoad_CommentsOnly(t *testing.T) {
	_, err := Load(strings.NewReader("# nothing here\n\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(comments only) error = %v, want ErrMalformedInput", err)
	}
}

func TestLoad_NonNumericWeight(t *testing.T) {
	_, err := Load(strings.NewReader("a b heavy\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Load(bad weight) error = %v, want ErrMalformedInput", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error %q does not name the offending line", err)
	}
}

func TestLoad_NegativeWeight(t *testing.T) {
	_, err := Load(strings.NewReader("a b -1\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(negative weight) error = %v, want ErrMalformedInput", err)
	}
}

func TestLoad_SelfLoop(t *testing.T) {
	_, err := Load(strings.NewReader("a a\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(self-loop) error = %v, want ErrMalformedInput", err)
	}
}

func TestLoad_DuplicateEdge(t *testing.T) {
	// Duplicate is direction-agnostic: b a repeats a b
	_, err := Load(strings.NewReader("a b\nb a 3\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(duplicate edge) error = %v, want ErrMalformedInput", err)
	}
}

func TestLoad_WrongFieldCount(t *testing.T) {
	_, err := Load(strings.NewReader("a b 1.0 extra\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(4 fields) error = %v, want ErrMalformedInput", err)
	}

	_, err = Load(strings.NewReader("lonely\n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Load(1 field) error = %v, want ErrMalformedInput", err)
	}
}

func TestGraph_NeighborsAndDegree(t *testing.T) {
	g := New()
	if err := g.AddEdge("a", "b", 2); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	if err := g.AddEdge("a", "c", 3); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}

	ua, _ := g.ID("a")
	if d := g.Degree(ua); d != 5 {
		t.Errorf("Degree(a) = %g, want 5", d)
	}

	seen := make(map[string]float64)
	g.Neighbors(ua, func(v int64, w float64) {
		seen[g.Name(v)] = w
	})
	if len(seen) != 2 || seen["b"] != 2 || seen["c"] != 3 {
		t.Errorf("Neighbors(a) = %v, want b:2 c:3", seen)
	}
}

func TestGraph_InterningIsDense(t *testing.T) {
	g := New()
	g.AddEdge("x", "y", 1)
	g.AddEdge("y", "z", 1)

	ids := g.NodeIDs()
	for i, id := range ids {
		if int64(i) != id {
			t.Fatalf("NodeIDs()[%d] = %d, interned ids must be dense", i, id)
		}
	}
}
