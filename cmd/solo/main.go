//go:build linux

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brickingsoft/solo"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:               "solo",
	Short:             "Single threaded io_uring runtime toolbox",
	Long:              `solo runs file operations on a single threaded io_uring runtime and reports what the ring supports`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(touchCmd)

	rootCmd.PersistentFlags().String("config", "", "TOML runtime config file")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().Uint32("entries", solo.DefaultEntries, "submission queue entries")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	colorFlag, _ := flags.GetString("color")
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("unknown color mode: %s", colorFlag)
	}

	levelFlag, _ := flags.GetString("log-level")
	level, err := zerolog.ParseLevel(strings.ToLower(levelFlag))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelFlag, err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

// newRuntime
// builds a runtime from the config file, then the command line flags on top.
func newRuntime(cmd *cobra.Command) (*solo.Runtime, error) {
	flags := cmd.Root().PersistentFlags()
	options := make([]solo.Option, 0, 8)

	if path, _ := flags.GetString("config"); path != "" {
		cfg, err := solo.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfgOptions, err := cfg.Options()
		if err != nil {
			return nil, err
		}
		options = append(options, cfgOptions...)
	}
	if flags.Changed("entries") {
		entries, _ := flags.GetUint32("entries")
		options = append(options, solo.WithEntries(entries))
	}
	options = append(options, solo.WithLogger(logger))

	rt, err := solo.Build(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to build runtime: %w", err)
	}
	return rt, nil
}

func closeRuntime(rt *solo.Runtime) {
	if err := rt.Close(); err != nil {
		logger.Warn().Err(err).Msg("runtime close failed")
	}
}
