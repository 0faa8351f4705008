package matching

import (
	"runtime"

	"go.uber.org/zap"
)

// DefaultMaxDepth is the default limit on nested branch points.
const DefaultMaxDepth = 64

// Config holds the tunables of a MatchingChallenge.
type Config struct {
	// MaxDepth bounds the number of nested EFA branch points on one search
	// path. Deeper branches are dropped. Zero or negative disables the guard.
	MaxDepth int

	// Workers is the number of goroutines SolveParallel explores branches
	// with. If 0 or negative, defaults to runtime.NumCPU().
	Workers int

	// Logger receives debug output for every search step.
	Logger *zap.Logger

	// Monitor collects search statistics. A fresh one is created when nil.
	Monitor *SearchMonitor
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth: DefaultMaxDepth,
		Workers:  runtime.NumCPU(),
		Logger:   zap.NewNop(),
	}
}

// Option configures a MatchingChallenge.
type Option func(*Config)

// WithMaxDepth sets the branch depth guard.
func WithMaxDepth(n int) Option {
	return func(c *Config) { c.MaxDepth = n }
}

// WithWorkers sets the SolveParallel worker count.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.Logger = l
	}
}

// WithMonitor shares a monitor between challenges.
func WithMonitor(m *SearchMonitor) Option {
	return func(c *Config) { c.Monitor = m }
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Monitor == nil {
		cfg.Monitor = NewSearchMonitor()
	}
	return cfg
}
