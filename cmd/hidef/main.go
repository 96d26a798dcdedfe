package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/cdaps/hidef/pkg/cluster"
	"github.com/cdaps/hidef/pkg/config"
	"github.com/cdaps/hidef/pkg/logging"
	"github.com/cdaps/hidef/pkg/output"
	"github.com/cdaps/hidef/pkg/pipeline"
	"github.com/cdaps/hidef/pkg/watcher"
	"github.com/cdaps/hidef/pkg/web"
)

// Exit codes match the cdhidef wrapper contract: 0 success, 1 pipeline
// failure, 2 unexpected error, 3 input is not a file, 4 input is empty.
const (
	exitOK = iota
	exitFailed
	exitInternal
	exitNotAFile
	exitEmptyInput
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("hidef", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hidef [flags] <edge list file>\n\n")
		flags.PrintDefaults()
	}
	flags.String("algorithm", "louvain", "community detection algorithm (louvain|leiden)")
	flags.Float64("minres", 0.001, "minimum resolution parameter")
	flags.Float64("maxres", 100.0, "maximum resolution parameter")
	flags.Int("steps", 25, "number of resolutions in the sweep")
	flags.Bool("linear", false, "linear resolution spacing instead of geometric")
	flags.Int("threads", 0, "parallel clustering workers (0 = all CPUs)")
	flags.Uint64("seed", 42, "random seed")
	flags.Int("timeout", 0, "sweep wall-clock budget in seconds (0 = unlimited)")
	flags.Float64("jaccard", 0.75, "jaccard similarity threshold for community dedup")
	flags.Int("minsize", 2, "minimum community size")
	flags.Bool("addroot", true, "add a synthetic root when no community covers all nodes")
	flags.String("out", "", "write <out>.nodes and <out>.edges tables")
	flags.Bool("nocdaps", false, "suppress the CDAPS stream on stdout, print a summary instead")
	flags.Bool("web", false, "start the detection service instead of a single run")
	flags.Int("port", 8080, "port for the detection service")
	flags.Bool("watch", false, "re-run the pipeline when the input file changes")
	flags.CountP("verbose", "v", "increase log verbosity")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitInternal
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInternal
	}
	applyVerbosity(cfg)

	pcfg := pipeline.Config{
		Sweep: cluster.Config{
			Algorithm: cfg.Algorithm,
			MinRes:    cfg.MinRes,
			MaxRes:    cfg.MaxRes,
			Steps:     cfg.Steps,
			Linear:    cfg.Linear,
			Threads:   cfg.Threads,
			Seed:      cfg.Seed,
			Timeout:   cfg.Timeout(),
		},
		Jaccard:   cfg.Jaccard,
		MinSize:   cfg.MinSize,
		AddRoot:   cfg.AddRoot,
		OutPrefix: cfg.Out,
	}

	if cfg.WebMode {
		server := web.NewServer(pcfg)
		if err := server.Start(cfg.Port); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			return exitInternal
		}
		return exitOK
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return exitInternal
	}
	input := flags.Arg(0)

	if code := checkInput(input); code != exitOK {
		return code
	}
	if !cfg.NoCDAPS {
		pcfg.CDAPS = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := runOnce(ctx, input, pcfg, cfg.NoCDAPS)
	if cfg.Watch && code == exitOK {
		return watchLoop(ctx, input, pcfg, cfg.NoCDAPS)
	}
	return code
}

func runOnce(ctx context.Context, input string, pcfg pipeline.Config, summary bool) int {
	result, err := pipeline.RunFile(ctx, input, pcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	if summary {
		output.PrintSummary(os.Stderr, result.Hierarchy)
	}
	return exitOK
}

// watchLoop re-runs the pipeline every time the input file settles after a
// change. Runs are serialized; a run failure is logged but keeps watching.
func watchLoop(ctx context.Context, input string, pcfg pipeline.Config, summary bool) int {
	fw, err := watcher.New(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInternal
	}
	if err := fw.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInternal
	}
	deb := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 5*time.Second)
	deb.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return exitOK
		case _, ok := <-deb.Events():
			if !ok {
				return exitOK
			}
			if code := checkInput(input); code != exitOK {
				logging.Warn("input no longer usable, still watching", "path", input)
				continue
			}
			runOnce(ctx, input, pcfg, summary)
		}
	}
}

// checkInput mirrors the original wrapper's pre-flight checks so missing and
// empty inputs get their dedicated exit codes.
func checkInput(path string) int {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		fmt.Fprintf(os.Stderr, "%s is not a file\n", path)
		return exitNotAFile
	}
	if info.Size() == 0 {
		fmt.Fprintf(os.Stderr, "%s is an empty file\n", path)
		return exitEmptyInput
	}
	return exitOK
}

func applyVerbosity(cfg *config.Config) {
	switch {
	case cfg.Verbosity == "debug" || cfg.VerboseCnt >= 1:
		logging.SetLevel(slog.LevelDebug)
	case cfg.Verbosity == "warn":
		logging.SetLevel(slog.LevelWarn)
	case cfg.Verbosity == "error":
		logging.SetLevel(slog.LevelError)
	default:
		logging.SetLevel(slog.LevelInfo)
	}
}
