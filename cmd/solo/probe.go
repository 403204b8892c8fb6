//go:build linux

package main

import (
	"fmt"
	"strings"

	"github.com/brickingsoft/solo/pkg/kernel"
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print kernel version, ring features and supported opcodes",
	Args:  cobra.NoArgs,
	RunE:  runProbe,
}

var (
	headerColor      = color.New(color.FgCyan, color.Bold)
	supportedColor   = color.New(color.FgGreen)
	unsupportedColor = color.New(color.FgRed)
)

func init() {
	probeCmd.Flags().Bool("unsupported", true, "list unsupported opcodes too")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	showUnsupported, err := cmd.Flags().GetBool("unsupported")
	if err != nil {
		return fmt.Errorf("failed to get unsupported flag: %w", err)
	}

	version, err := kernel.Get()
	if err != nil {
		return fmt.Errorf("failed to read kernel version: %w", err)
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)
	ring := rt.Handle().Driver().Ring()

	probe, err := ring.Probe()
	if err != nil {
		return fmt.Errorf("failed to probe ring: %w", err)
	}

	out := cmd.OutOrStdout()
	headerColor.Fprintln(out, "kernel")
	fmt.Fprintf(out, "  %s\n", version)

	headerColor.Fprintln(out, "ring")
	fmt.Fprintf(out, "  sq entries  %d\n", ring.SQEntries())
	fmt.Fprintf(out, "  cq entries  %d\n", ring.CQEntries())
	fmt.Fprintf(out, "  ext arg     %t\n", ring.ExtArg())
	fmt.Fprintf(out, "  features    %s\n", strings.Join(liburing.FeatureNames(ring.Features()), " "))

	headerColor.Fprintln(out, "opcodes")
	supported := 0
	for op := 0; op <= int(probe.LastOp); op++ {
		name := liburing.OpName(uint8(op))
		if probe.IsSupported(uint8(op)) {
			supported++
			supportedColor.Fprintf(out, "  + %s\n", name)
		} else if showUnsupported {
			unsupportedColor.Fprintf(out, "  - %s\n", name)
		}
	}
	fmt.Fprintf(out, "%d of %d opcodes supported\n", supported, int(probe.LastOp)+1)
	return nil
}
