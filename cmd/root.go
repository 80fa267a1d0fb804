// Package cmd wires up the CLI flags and dispatches to the driver modes.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	flag "github.com/spf13/pflag"

	"mull/config"
	"mull/internal/core"
	"mull/internal/device"
	ncerr "mull/internal/errors"
	"mull/internal/metrics"
	"mull/internal/sink"
	"mull/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X mull/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs mull against a fresh endpoint.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// ── defaults, then environment ───────────────────────────────
	cfg := config.Default()
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("mull", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── endpoint ─────────────────────────────────────────────────
	fs.VarP(&cfg.BufferSize, "buffer-size", "b", "Sink buffer capacity (e.g. 1024, 4KiB, 1MiB)")
	fs.BoolVarP(&cfg.LockMemory, "lock-memory", "L", cfg.LockMemory, "Lock the buffer in RAM (mmap+mlock)")

	// ── payload ──────────────────────────────────────────────────
	fs.StringVarP(&cfg.Input, "input", "i", cfg.Input, "Read payload from file, or - for stdin")
	fs.VarP(&cfg.Total, "total", "n", "Bytes to offer (default 64MiB when generated, all of --input otherwise)")
	fs.VarP(&cfg.Chunk, "chunk", "s", "Bytes offered per write call")
	fs.StringVar(&cfg.Pattern, "pattern", cfg.Pattern, "Generated payload: zero or random")

	// ── sessions ─────────────────────────────────────────────────
	fs.IntVarP(&cfg.Writers, "writers", "j", cfg.Writers, "Concurrent writers contending for the endpoint")
	fs.BoolVarP(&cfg.Wait, "wait", "W", cfg.Wait, "Wait for a busy endpoint instead of giving up")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file on exit")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "Print reports as JSON")
	var verbosity int
	fs.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp, quiet bool
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "mull %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}
	if fs.Changed("verbose") {
		cfg.Verbose += verbosity
	}
	if quiet {
		cfg.Verbose = 0
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		fmt.Fprintf(stdout, "configuration ok: buffer %s, chunk %s, %d writer(s)\n",
			cfg.BufferSize, cfg.Chunk, cfg.Writers)
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)
	collector := metrics.New()

	dev, err := device.New(device.Options{
		Capacity:  uint64(cfg.BufferSize),
		Allocator: sink.NewAllocator(cfg.LockMemory),
	}, logger, collector)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		results []core.Result
	)
	mode, err := core.Build(cfg, dev, logger, core.Hooks{
		Stdin: stdin,
		OnResult: func(r core.Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	if err != nil {
		dev.Shutdown() //nolint:errcheck
		return err
	}

	// ── run ──────────────────────────────────────────────────────
	runErr := mode.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Writer < results[j].Writer })
	if err := printReports(stdout, cfg.JSON, results, collector); err != nil {
		logger.Error("print reports: %v", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, collector); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if err := dev.Shutdown(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// ── output ───────────────────────────────────────────────────────────

type jsonSession struct {
	Writer int `json:"writer"`
	metrics.Report
}

type jsonOutput struct {
	Sessions []jsonSession    `json:"sessions"`
	Busy     int              `json:"busy"`
	Metrics  metrics.Snapshot `json:"metrics"`
}

func printReports(w io.Writer, asJSON bool, results []core.Result, c *metrics.Collector) error {
	if !asJSON {
		for _, r := range results {
			if r.Opened {
				fmt.Fprintf(w, "writer %d: %s\n", r.Writer, r.Report)
			}
		}
		if busy := countBusy(results); busy > 0 {
			fmt.Fprintf(w, "%d writer(s) refused: %v\n", busy, ncerr.ErrBusy)
		}
		return nil
	}

	out := jsonOutput{Sessions: []jsonSession{}, Busy: countBusy(results), Metrics: c.Snapshot()}
	for _, r := range results {
		if r.Opened {
			out.Sessions = append(out.Sessions, jsonSession{Writer: r.Writer, Report: r.Report})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func countBusy(results []core.Result) int {
	n := 0
	for _, r := range results {
		if errors.Is(r.Err, ncerr.ErrBusy) {
			n++
		}
	}
	return n
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `mull - write-only throughput sink v%s

Copies every write into a fixed-size buffer, throws it away, and
reports how fast it went.  One session at a time.

Usage:
  mull [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  Every option has a MULL_* variable (MULL_BUFFER_SIZE, MULL_WAIT, ...);
  flags win over the environment.

Examples:
  mull                                        64MiB of zeros, 1KiB buffer
  mull -b 1MiB -n 4GiB --pattern random       Larger buffer, random data
  dd if=/dev/urandom bs=1M count=100 | mull -i -
  mull -j 8                                   8 writers race, one wins
  mull -j 8 -W --json                         8 writers, one after another
  mull --metrics-file /var/lib/node_exporter/mull.prom
`)
}
