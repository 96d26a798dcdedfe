package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cdaps/hidef/pkg/cluster"
	"github.com/cdaps/hidef/pkg/graph"
	"github.com/cdaps/hidef/pkg/hierarchy"
	"github.com/cdaps/hidef/pkg/logging"
	"github.com/cdaps/hidef/pkg/output"
)

// State is the pipeline's position in its linear run:
// Loaded -> Swept -> Hierarchized -> Serialized, or terminal Failed.
// There are no backward transitions and a Failed run emits no output.
type State int

const (
	StateInitial State = iota
	StateLoaded
	StateSwept
	StateHierarchized
	StateSerialized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateLoaded:
		return "loaded"
	case StateSwept:
		return "swept"
	case StateHierarchized:
		return "hierarchized"
	case StateSerialized:
		return "serialized"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config is the full parameterization of one pipeline run.
type Config struct {
	Sweep   cluster.Config
	Jaccard float64 // dedup similarity threshold
	MinSize int     // minimum community size
	AddRoot bool    // synthetic all-nodes root when uncovered

	// OutPrefix, when non-empty, writes <prefix>.nodes and <prefix>.edges.
	OutPrefix string
	// CDAPS, when non-nil, receives the COMMUNITYDETECTRESULT stream.
	CDAPS io.Writer
}

// Result is the terminal outcome of a run.
type Result struct {
	RunID     string
	State     State
	Hierarchy *hierarchy.Hierarchy
}

// Run executes the whole pipeline on the edge list read from in. It is the
// single entry point the container wrapper calls: input and configuration
// in, CDAPS tables out. Any stage failure is terminal; the returned error
// carries the stage name and wraps the stage's sentinel.
func Run(ctx context.Context, in io.Reader, cfg Config) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	result := &Result{RunID: runID, State: StateInitial}
	start := time.Now()

	fail := func(stage string, err error) (*Result, error) {
		result.State = StateFailed
		logging.ErrorContext(ctx, "pipeline failed", "stage", stage, "error", err.Error())
		return result, fmt.Errorf("%s stage: %w", stage, err)
	}

	g, err := graph.Load(in)
	if err != nil {
		return fail("load", err)
	}
	result.State = StateLoaded
	logging.InfoContext(ctx, "graph loaded",
		"nodes", g.NodeCount(), "edges", g.EdgeCount(), "totalWeight", g.TotalWeight())

	sweep, err := cluster.Sweep(ctx, g, cfg.Sweep)
	if err != nil {
		return fail("sweep", err)
	}
	result.State = StateSwept

	b := hierarchy.Builder{
		JaccardThreshold: cfg.Jaccard,
		MinSize:          cfg.MinSize,
		AddRoot:          cfg.AddRoot,
	}
	h, err := b.Build(g, sweep)
	if err != nil {
		return fail("hierarchy", fmt.Errorf("jaccard=%g minSize=%d: %w", cfg.Jaccard, cfg.MinSize, err))
	}
	result.Hierarchy = h
	result.State = StateHierarchized

	if cfg.OutPrefix != "" {
		if err := output.WriteFiles(cfg.OutPrefix, h); err != nil {
			return fail("serialize", err)
		}
	}
	if cfg.CDAPS != nil {
		if err := output.WriteCDAPS(cfg.CDAPS, h); err != nil {
			return fail("serialize", err)
		}
	}
	result.State = StateSerialized

	logging.InfoContext(ctx, "pipeline complete",
		"state", result.State.String(),
		"communities", len(h.Communities),
		"durationMs", time.Since(start).Milliseconds())
	return result, nil
}

// RunFile opens path and executes Run.
func RunFile(ctx context.Context, path string, cfg Config) (*Result, error) {
	f, err := openInput(path)
	if err != nil {
		return &Result{RunID: uuid.NewString(), State: StateFailed}, err
	}
	defer f.Close()
	return Run(ctx, f, cfg)
}
