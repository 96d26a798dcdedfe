package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/cdaps/hidef/pkg/graph"
	"github.com/cdaps/hidef/pkg/logging"
)

// Config parameterizes a resolution sweep. Seed fixes all randomness; every
// step derives its own rand source from (Seed, step index) so results do not
// depend on worker scheduling.
type Config struct {
	Algorithm string
	MinRes    float64
	MaxRes    float64
	Steps     int
	Linear    bool // linear spacing instead of geometric
	Threads   int
	Seed      uint64
	Timeout   time.Duration // zero means no sweep timeout
}

// SweepResult is the ordered outcome of a resolution sweep: partitions
// indexed by strictly increasing resolution values.
type SweepResult struct {
	Resolutions []float64
	Partitions  []Partition
}

// Resolutions computes the sweep schedule. Spacing is geometric between
// MinRes and MaxRes (HiDeF sweeps several decades), or linear when
// configured. Fails with ErrInvalidRange before any clustering run.
func (c Config) Resolutions() ([]float64, error) {
	if c.MinRes >= c.MaxRes {
		return nil, fmt.Errorf("%w: min %g >= max %g", ErrInvalidRange, c.MinRes, c.MaxRes)
	}
	if c.Steps < 1 {
		return nil, fmt.Errorf("%w: step count %d < 1", ErrInvalidRange, c.Steps)
	}
	if !c.Linear && c.MinRes <= 0 {
		return nil, fmt.Errorf("%w: geometric spacing requires min > 0, got %g", ErrInvalidRange, c.MinRes)
	}

	if c.Steps == 1 {
		return []float64{c.MinRes}, nil
	}
	out := make([]float64, c.Steps)
	for i := 0; i < c.Steps; i++ {
		t := float64(i) / float64(c.Steps-1)
		if c.Linear {
			out[i] = c.MinRes + t*(c.MaxRes-c.MinRes)
		} else {
			out[i] = c.MinRes * math.Pow(c.MaxRes/c.MinRes, t)
		}
	}
	out[c.Steps-1] = c.MaxRes // avoid float drift at the top end
	return out, nil
}

// Sweep runs the configured strategy at every scheduled resolution, up to
// cfg.Threads runs in parallel. The graph is shared read-only across
// workers. Results are collected and returned sorted by resolution no matter
// the completion order. On timeout or a failed run, partial results are
// discarded.
func Sweep(ctx context.Context, g *graph.Graph, cfg Config) (*SweepResult, error) {
	strategy, err := ForName(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return sweepWith(ctx, g, cfg, strategy)
}

func sweepWith(ctx context.Context, g *graph.Graph, cfg Config, strategy Strategy) (*SweepResult, error) {
	resolutions, err := cfg.Resolutions()
	if err != nil {
		return nil, err
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	if threads > len(resolutions) {
		threads = len(resolutions)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	logging.Info("starting resolution sweep",
		"algorithm", strategy.Name(), "steps", len(resolutions),
		"min", resolutions[0], "max", resolutions[len(resolutions)-1],
		"threads", threads)

	// Each index is written by exactly one worker.
	partitions := make([]Partition, len(resolutions))

	jobs := make(chan int)
	errc := make(chan error, len(resolutions))
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res := resolutions[idx]
				start := time.Now()
				// The per-step source keeps output independent of
				// worker scheduling.
				src := rand.NewPCG(cfg.Seed, uint64(idx))
				p, err := strategy.ClusterOnce(g, res, src)
				if err != nil {
					errc <- err
					return
				}
				partitions[idx] = p
				logging.Debug("clustering run complete",
					"resolution", res, "communities", len(p.Communities()),
					"durationMs", time.Since(start).Milliseconds())
			}
		}()
	}

	dispatch := func() error {
		defer close(jobs)
		for idx := range resolutions {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return ctx.Err()
			case err := <-errc:
				return err
			}
		}
		return nil
	}
	dispatchErr := dispatch()
	wg.Wait()

	if dispatchErr == nil {
		select {
		case dispatchErr = <-errc:
		default:
		}
	}
	deadlineErr := func() error {
		if cfg.Timeout > 0 {
			return fmt.Errorf("%w: after %s", ErrSweepTimeout, cfg.Timeout)
		}
		return fmt.Errorf("%w: %v", ErrSweepTimeout, context.Cause(ctx))
	}
	if dispatchErr != nil {
		if ctx.Err() != nil {
			return nil, deadlineErr()
		}
		return nil, dispatchErr
	}
	if ctx.Err() != nil {
		return nil, deadlineErr()
	}

	return &SweepResult{Resolutions: resolutions, Partitions: partitions}, nil
}
