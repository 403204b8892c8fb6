//go:build linux

package solo

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/rs/zerolog"
)

// Config
// file form of the builder options.
//
//	entries = 1024
//	fairness = 2
//	close_timeout = "3s"
//	cpu_affinity = 0
//
//	[ring]
//	flags = ["coop_taskrun", "single_issuer"]
//	sq_thread_idle = 0
//
//	[blocking]
//	strategy = "local"
//	pool_size = 8
//
//	[log]
//	level = "info"
type Config struct {
	Entries      uint32         `toml:"entries"`
	Fairness     int            `toml:"fairness"`
	CloseTimeout string         `toml:"close_timeout"`
	CPUAffinity  *int           `toml:"cpu_affinity"`
	Ring         RingConfig     `toml:"ring"`
	Blocking     BlockingConfig `toml:"blocking"`
	Log          LogConfig      `toml:"log"`
}

type RingConfig struct {
	Flags        []string `toml:"flags"`
	CQEntries    uint32   `toml:"cq_entries"`
	SQThreadIdle uint32   `toml:"sq_thread_idle"`
	SQThreadCPU  *uint32  `toml:"sq_thread_cpu"`
}

type BlockingConfig struct {
	// Strategy is "panic" or "local".
	Strategy string `toml:"strategy"`
	PoolSize int    `toml:"pool_size"`
	// Shared uses the process wide executors instead of a runtime owned pool.
	Shared bool `toml:"shared"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, configErr(path, err)
	}
	return cfg, nil
}

func ParseConfig(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, configErr("", err)
	}
	return cfg, nil
}

func configErr(path string, err error) error {
	return errors.From(
		ErrInvalidConfig,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta("path", path),
		errors.WithWrap(err),
	)
}

// Options
// the builder options the config describes. Zero fields keep the defaults.
func (c *Config) Options() ([]Option, error) {
	options := make([]Option, 0, 8)
	if c.Entries > 0 {
		options = append(options, WithEntries(c.Entries))
	}
	if c.Fairness != 0 {
		options = append(options, WithFairness(c.Fairness))
	}
	if c.CloseTimeout != "" {
		timeout, err := time.ParseDuration(c.CloseTimeout)
		if err != nil {
			return nil, configErr("", err)
		}
		options = append(options, WithCloseTimeout(timeout))
	}

	if c.CPUAffinity != nil {
		options = append(options, WithCPUAffinity(*c.CPUAffinity))
	}

	ringOptions, err := c.Ring.options()
	if err != nil {
		return nil, err
	}
	if len(ringOptions) > 0 {
		options = append(options, WithRingOptions(ringOptions...))
	}

	switch strings.ToLower(c.Blocking.Strategy) {
	case "", "panic":
	case "local", "execute_local":
		options = append(options, WithBlockingStrategy(BlockingExecuteLocal))
	default:
		return nil, invalidOption("blocking.strategy", c.Blocking.Strategy)
	}
	switch {
	case c.Blocking.Shared:
		pool, poolErr := SharedThreadPool()
		if poolErr != nil {
			return nil, poolErr
		}
		options = append(options, WithThreadPool(pool))
	case c.Blocking.PoolSize > 0:
		options = append(options, WithMaxBlockingGoroutines(c.Blocking.PoolSize))
	}

	if c.Log.Level != "" {
		level, levelErr := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
		if levelErr != nil {
			return nil, configErr("", levelErr)
		}
		options = append(options, WithLogLevel(level))
	}
	return options, nil
}

func (r *RingConfig) options() ([]liburing.Option, error) {
	options := make([]liburing.Option, 0, 4)
	var flags uint32
	for _, name := range r.Flags {
		flag := liburing.ParseSetupFlags(name)
		if flag == 0 {
			return nil, invalidOption("ring.flags", name)
		}
		flags |= flag
	}
	if flags != 0 {
		options = append(options, liburing.WithFlags(flags))
	}
	if r.CQEntries > 0 {
		options = append(options, liburing.WithCQEntries(r.CQEntries))
	}
	if r.SQThreadIdle > 0 {
		options = append(options, liburing.WithSQThreadIdle(r.SQThreadIdle))
	}
	if r.SQThreadCPU != nil {
		options = append(options, liburing.WithSQThreadCPU(*r.SQThreadCPU))
	}
	return options, nil
}
