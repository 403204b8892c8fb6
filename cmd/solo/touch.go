//go:build linux

package main

import (
	"fmt"

	"github.com/brickingsoft/solo"
	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/fs"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var touchCmd = &cobra.Command{
	Use:   "touch [flags] path...",
	Short: "Open or create files through the ring",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTouch,
}

func init() {
	touchCmd.Flags().Bool("truncate", false, "truncate existing files")
	touchCmd.Flags().Bool("append", false, "open in append mode")
	touchCmd.Flags().Bool("exclusive", false, "fail when a file already exists")
	touchCmd.Flags().Uint32("mode", fs.DefaultMode, "permission bits for created files")
}

func runTouch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	truncate, _ := flags.GetBool("truncate")
	appendMode, _ := flags.GetBool("append")
	exclusive, _ := flags.GetBool("exclusive")
	mode, _ := flags.GetUint32("mode")

	opener := fs.NewOpener().
		Write(!appendMode).
		Append(appendMode).
		Truncate(truncate).
		Mode(mode)
	if exclusive {
		opener.CreateNew(true)
	} else {
		opener.Create(true)
	}
	if _, err := opener.Flags(); err != nil {
		return fmt.Errorf("invalid open options: %w", err)
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	h := rt.Handle()
	joins := make([]*task.JoinHandle[error], 0, len(args))
	for _, path := range args {
		open, openErr := opener.OpenAt(h.Driver(), unix.AT_FDCWD, path)
		if openErr != nil {
			return openErr
		}
		joins = append(joins, solo.Spawn(h, &touchFile{driver: h.Driver(), open: open}))
	}

	failed := 0
	for i, join := range joins {
		r := solo.BlockOn(rt, join)
		touchErr := r.Err
		if touchErr == nil {
			touchErr = r.Value
		}
		if touchErr != nil {
			failed++
			logger.Error().Str("path", args[i]).Err(touchErr).Msg("touch failed")
			continue
		}
		logger.Debug().Str("path", args[i]).Msg("touched")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// touchFile
// waits for an open and closes the file again.
type touchFile struct {
	driver *driver.Driver
	open   task.Future[task.Result[*fs.File]]
	close  task.Future[task.Result[struct{}]]
	file   *fs.File
}

func (t *touchFile) Poll(cx *task.Context) task.Poll[error] {
	if t.close == nil {
		r, ok := t.open.Poll(cx).Value()
		if !ok {
			return task.Pending[error]()
		}
		if r.Err != nil {
			return task.Ready(r.Err)
		}
		t.file = r.Value
		t.close = t.file.Close(t.driver)
	}
	r, ok := t.close.Poll(cx).Value()
	if !ok {
		return task.Pending[error]()
	}
	return task.Ready(r.Err)
}

func (t *touchFile) Drop() {
	task.Drop(t.open)
	task.Drop(t.close)
	if t.file != nil {
		t.file.Drop()
	}
}
