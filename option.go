//go:build linux

package solo

import (
	"time"

	"github.com/brickingsoft/rxp"
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/rs/zerolog"
)

const (
	MinEntries          = 256
	DefaultEntries      = 1024
	DefaultFairness     = 2
	DefaultCloseTimeout = 3 * time.Second
)

type Options struct {
	Entries          uint32
	RingOptions      []liburing.Option
	Fairness         int
	Logger           zerolog.Logger
	LogLevel         *zerolog.Level
	BlockingStrategy BlockingStrategy
	ThreadPool       ThreadPool
	CloseTimeout     time.Duration
	CPUAffinity      *int
	RxpOptions       rxp.Options
}

// AsRxpOptions
// the rxp options a runtime owned thread pool is created with.
func (options *Options) AsRxpOptions() []rxp.Option {
	opts := make([]rxp.Option, 0, 1)
	if n := options.RxpOptions.MaxprocsOptions.MinGOMAXPROCS; n > 0 {
		opts = append(opts, rxp.WithMinGOMAXPROCS(n))
	}
	if fn := options.RxpOptions.MaxprocsOptions.Procs; fn != nil {
		opts = append(opts, rxp.WithProcs(fn))
	}
	if fn := options.RxpOptions.MaxprocsOptions.RoundQuotaFunc; fn != nil {
		opts = append(opts, rxp.WithRoundQuotaFunc(fn))
	}
	if n := options.RxpOptions.MaxGoroutines; n > 0 {
		opts = append(opts, rxp.WithMaxGoroutines(n))
	}
	if n := options.RxpOptions.MaxReadyGoroutinesIdleDuration; n > 0 {
		opts = append(opts, rxp.WithMaxReadyGoroutinesIdleDuration(n))
	}
	if n := options.RxpOptions.CloseTimeout; n > 0 {
		opts = append(opts, rxp.WithCloseTimeout(n))
	}
	return opts
}

type Option func(options *Options) (err error)

// WithEntries
// submission queue depth. Values below MinEntries are raised to it.
func WithEntries(entries uint32) Option {
	return func(options *Options) (err error) {
		if entries < MinEntries {
			entries = MinEntries
		}
		options.Entries = entries
		return
	}
}

// WithRingOptions
// full control over the ring setup. Applied after WithEntries.
func WithRingOptions(opts ...liburing.Option) Option {
	return func(options *Options) (err error) {
		options.RingOptions = append(options.RingOptions, opts...)
		return
	}
}

// WithFairness
// how many times the observed queue length one drain pass may run before
// the loop goes back to the driver. Default 2.
func WithFairness(k int) Option {
	return func(options *Options) (err error) {
		if k < 1 {
			return invalidOption("fairness", "must be positive")
		}
		options.Fairness = k
		return
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(options *Options) (err error) {
		options.Logger = logger
		return
	}
}

// WithLogLevel
// minimum level of the runtime logger, applied on top of WithLogger.
func WithLogLevel(level zerolog.Level) Option {
	return func(options *Options) (err error) {
		options.LogLevel = &level
		return
	}
}

// WithBlockingStrategy
// what SpawnBlocking does when no thread pool is attached.
func WithBlockingStrategy(strategy BlockingStrategy) Option {
	return func(options *Options) (err error) {
		switch strategy {
		case BlockingPanic, BlockingExecuteLocal:
			options.BlockingStrategy = strategy
		default:
			return invalidOption("blocking_strategy", strategy.String())
		}
		return
	}
}

// WithThreadPool
// attaches a pool for SpawnBlocking. The runtime does not close it.
func WithThreadPool(pool ThreadPool) Option {
	return func(options *Options) (err error) {
		options.ThreadPool = pool
		return
	}
}

// WithMaxBlockingGoroutines
// creates a DefaultThreadPool owned and closed by the runtime.
func WithMaxBlockingGoroutines(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			return invalidOption("max_blocking_goroutines", "must be positive")
		}
		return rxp.WithMaxGoroutines(n)(&options.RxpOptions)
	}
}

// WithCloseTimeout
// how long Close waits for canceled operations to complete.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(options *Options) (err error) {
		if timeout < 0 {
			return invalidOption("close_timeout", "must not be negative")
		}
		options.CloseTimeout = timeout
		return
	}
}

// WithCPUAffinity
// pins the thread running BlockOn to one CPU, the cpu-th of those the process may use.
func WithCPUAffinity(cpu int) Option {
	return func(options *Options) (err error) {
		if cpu < 0 {
			return invalidOption("cpu_affinity", "must not be negative")
		}
		options.CPUAffinity = &cpu
		return
	}
}
