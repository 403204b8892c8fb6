package driver

import (
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/rs/zerolog"
)

const (
	DefaultEntries = 1024
)

type Options struct {
	Entries     uint32
	RingOptions []liburing.Option
	Logger      zerolog.Logger
}

type Option func(*Options) error

// WithEntries
// submission queue depth.
func WithEntries(entries uint32) Option {
	return func(opts *Options) error {
		if entries > 0 {
			opts.Entries = entries
		}
		return nil
	}
}

// WithRingOptions
// raw ring setup options, applied after WithEntries so they can override it.
func WithRingOptions(options ...liburing.Option) Option {
	return func(opts *Options) error {
		opts.RingOptions = append(opts.RingOptions, options...)
		return nil
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}
