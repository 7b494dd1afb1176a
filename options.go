package bump

import (
	"errors"
	"log/slog"
	"os"
)

// osExit is swapped out by tests of the default alloc error handler.
var osExit = os.Exit

type config struct {
	sys             SystemAllocator
	logger          *slog.Logger
	initialCapacity uintptr
	onAllocError    func(error)
}

// Option configures an Arena.
type Option func(*config)

// WithSystemAllocator sets where the arena obtains its chunks.
// The default is MmapAllocator on linux and HeapAllocator elsewhere.
func WithSystemAllocator(s SystemAllocator) Option {
	return func(c *config) {
		if s != nil {
			c.sys = s
		}
	}
}

// WithLogger sets the logger used for chunk growth and allocation failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInitialCapacity sets the minimum size of the first chunk a lazily
// constructed arena allocates.
// If n <= 0, DefaultCapacity is used.
func WithInitialCapacity(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultCapacity
		}
		c.initialCapacity = uintptr(n)
	}
}

// WithAllocErrorHandler replaces the handler the infallible API calls when
// an allocation cannot be satisfied. The default logs the failure and exits
// the process. If fn returns, the arena panics with the error.
func WithAllocErrorHandler(fn func(error)) Option {
	return func(c *config) {
		if fn != nil {
			c.onAllocError = fn
		}
	}
}

func newConfig(opts []Option) config {
	c := config{
		sys:             defaultSystemAllocator(),
		logger:          slog.Default(),
		initialCapacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.onAllocError == nil {
		logger := c.logger
		c.onAllocError = func(err error) {
			attrs := []any{"error", err}
			var ae *AllocError
			if errors.As(err, &ae) {
				attrs = append(attrs, "size", ae.Layout.Size(), "align", ae.Layout.Align())
				if ae.Count > 0 {
					attrs = append(attrs, "count", ae.Count)
				}
			}
			logger.Error("memory allocation failed", attrs...)
			osExit(2)
		}
	}
	return c
}
