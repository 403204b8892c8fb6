//go:build linux

package solo

import (
	"sync/atomic"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/scheduler"
	"github.com/rs/zerolog"
)

var runtimeIds atomic.Uint64

// Builder
// collects options for a Runtime.
type Builder struct {
	options []Option
}

func NewBuilder(options ...Option) *Builder {
	return &Builder{options: options}
}

func (b *Builder) With(options ...Option) *Builder {
	b.options = append(b.options, options...)
	return b
}

func (b *Builder) Build() (rt *Runtime, err error) {
	opts := Options{
		Entries:          DefaultEntries,
		Fairness:         DefaultFairness,
		Logger:           zerolog.Nop(),
		BlockingStrategy: BlockingPanic,
		CloseTimeout:     DefaultCloseTimeout,
	}
	for _, o := range b.options {
		if err = o(&opts); err != nil {
			return
		}
	}
	logger := opts.Logger
	if opts.LogLevel != nil {
		logger = logger.Level(*opts.LogLevel)
	}

	d, err := driver.New(
		driver.WithEntries(opts.Entries),
		driver.WithRingOptions(opts.RingOptions...),
		driver.WithLogger(logger.With().Str("component", "driver").Logger()),
	)
	if err != nil {
		return
	}

	id := runtimeIds.Add(1)
	rt = &Runtime{
		id:           id,
		driver:       d,
		local:        scheduler.NewLocal(int(opts.Entries)),
		remote:       scheduler.NewRemote(d.Unparker()),
		fairness:     opts.Fairness,
		strategy:     opts.BlockingStrategy,
		pool:         opts.ThreadPool,
		closeTimeout: opts.CloseTimeout,
		cpu:          -1,
		logger:       logger.With().Uint64("runtime", id).Logger(),
	}
	if opts.CPUAffinity != nil {
		rt.cpu = *opts.CPUAffinity
	}
	if rt.pool == nil && opts.RxpOptions.MaxGoroutines > 0 {
		pool, poolErr := NewDefaultThreadPool(0, opts.AsRxpOptions()...)
		if poolErr != nil {
			_ = d.Close()
			rt, err = nil, poolErr
			return
		}
		rt.pool = pool
		rt.ownedPool = pool
	}
	rt.handle = &Handle{rt: rt}
	rt.logger.Debug().
		Int("fairness", rt.fairness).
		Str("blocking", rt.strategy.String()).
		Bool("thread_pool", rt.pool != nil).
		Msg("runtime built")
	return
}

// Build
// a runtime with default options plus options.
func Build(options ...Option) (*Runtime, error) {
	return NewBuilder(options...).Build()
}
