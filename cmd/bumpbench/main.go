// Command bumpbench times string allocation from bump arenas against the Go
// heap.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/bump"
)

var (
	Iterations = pflag.IntP("iterations", "n", 10_000_000, "strings to allocate per worker")
	RenewEvery = pflag.IntP("renew-every", "r", 10_000, "start a new arena cycle every N strings (0 to never)")
	Reuse      = pflag.Bool("reuse", false, "reset and reuse the arena each cycle instead of constructing a new one")
	Backend    = pflag.StringP("backend", "b", "heap", "chunk backend (heap, mmap)")
	Workers    = pflag.IntP("workers", "w", 1, "goroutines, each with its own arena")
	Text       = pflag.StringP("text", "t", "hello world", "string to allocate")
	LogLevel   = pflag.String("log-level", "info", "log level (debug, info, warn, error)")
	LogJSON    = pflag.Bool("log-json", false, "use json logs")
	Help       = pflag.BoolP("help", "h", false, "show this help text")
)

// sinks keep the baseline's allocations from being optimized away.
var sinks []string

func main() {
	pflag.Parse()

	if *Help || pflag.NArg() != 0 {
		fmt.Printf("usage: %s [options]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *LogLevel)
		os.Exit(2)
	}
	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})))
	}

	if err := run(context.Background()); err != nil {
		slog.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if *Iterations <= 0 || *Workers <= 0 || *RenewEvery < 0 {
		return fmt.Errorf("iterations and workers must be positive, renew-every non-negative")
	}

	var sys bump.SystemAllocator
	switch *Backend {
	case "heap":
		sys = bump.HeapAllocator{}
	case "mmap":
		sys = bump.MmapAllocator{}
	default:
		return fmt.Errorf("unknown backend %q", *Backend)
	}
	counting := bump.NewCountingAllocator(sys)
	pool := bump.NewPool(0, bump.WithSystemAllocator(counting))
	defer pool.Release()

	slog.Info("starting",
		"iterations", *Iterations, "workers", *Workers, "renew_every", *RenewEvery,
		"reuse", *Reuse, "backend", *Backend)

	elapsed, err := timed(ctx, func(int) error {
		return allocArena(pool)
	})
	if err != nil {
		return fmt.Errorf("arena run: %w", err)
	}
	report("bump", elapsed)
	slog.Info("chunks",
		"allocated", counting.Allocs(), "freed", counting.Frees(), "live_bytes", counting.LiveBytes())

	sinks = make([]string, *Workers)
	elapsed, err = timed(ctx, func(w int) error {
		allocHeap(w)
		return nil
	})
	if err != nil {
		return fmt.Errorf("heap run: %w", err)
	}
	report("go-heap", elapsed)
	return nil
}

func timed(ctx context.Context, work func(worker int) error) (time.Duration, error) {
	g, _ := errgroup.WithContext(ctx)
	start := time.Now()
	for w := range *Workers {
		g.Go(func() error { return work(w) })
	}
	err := g.Wait()
	return time.Since(start), err
}

func allocArena(pool *bump.Pool) error {
	a, err := pool.TryGet()
	if err != nil {
		return err
	}
	for i := range *Iterations {
		if *RenewEvery > 0 && i > 0 && i%*RenewEvery == 0 {
			if *Reuse {
				a.Reset()
			} else {
				a.Release()
				if a, err = pool.TryGet(); err != nil {
					return err
				}
			}
		}
		if _, err := a.TryAllocString(*Text); err != nil {
			return err
		}
	}
	pool.Put(a)
	return nil
}

func allocHeap(w int) {
	for range *Iterations {
		sinks[w] = strings.Clone(*Text)
	}
}

func report(name string, elapsed time.Duration) {
	total := *Iterations * *Workers
	slog.Info("finished",
		"allocator", name,
		"elapsed", elapsed,
		"ns_per_alloc", float64(elapsed.Nanoseconds())/float64(total))
}
