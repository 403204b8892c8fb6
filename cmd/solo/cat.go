//go:build linux

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/brickingsoft/solo"
	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/fs"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat [flags] path...",
	Short: "Read files through the ring and write them to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCat,
}

func init() {
	catCmd.Flags().Int("chunk", 64<<10, "read size per operation")
}

func runCat(cmd *cobra.Command, args []string) error {
	chunk, err := cmd.Flags().GetInt("chunk")
	if err != nil {
		return fmt.Errorf("failed to get chunk flag: %w", err)
	}
	if chunk < 1 {
		return fmt.Errorf("invalid chunk size: %d", chunk)
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	d := rt.Handle().Driver()
	buf := make([]byte, chunk)
	for _, path := range args {
		open, openErr := fs.Open(d, path)
		if openErr != nil {
			return openErr
		}
		n, catErr := solo.BlockOn(rt, &catFile{driver: d, open: open, buf: buf, out: cmd.OutOrStdout()}).Unwrap()
		logger.Debug().Str("path", path).Int64("bytes", n).Err(catErr).Msg("cat")
		if catErr != nil {
			return catErr
		}
	}
	return nil
}

// catFile
// copies one file to out, chunk by chunk, then closes it.
type catFile struct {
	driver  *driver.Driver
	open    task.Future[task.Result[*fs.File]]
	file    *fs.File
	read    task.Future[task.Result[int]]
	close   task.Future[task.Result[struct{}]]
	buf     []byte
	offset  int64
	out     io.Writer
	readErr error
}

func (c *catFile) Poll(cx *task.Context) task.Poll[task.Result[int64]] {
	for {
		if c.file == nil {
			r, ok := c.open.Poll(cx).Value()
			if !ok {
				return task.Pending[task.Result[int64]]()
			}
			if r.Err != nil {
				return task.Ready(task.Result[int64]{Err: r.Err})
			}
			c.file = r.Value
		}

		if c.close != nil {
			r, ok := c.close.Poll(cx).Value()
			if !ok {
				return task.Pending[task.Result[int64]]()
			}
			return task.Ready(task.Result[int64]{Value: c.offset, Err: errors.Join(c.readErr, r.Err)})
		}

		if c.read == nil {
			c.read = c.file.ReadAt(c.driver, c.buf, c.offset)
		}
		r, ok := c.read.Poll(cx).Value()
		if !ok {
			return task.Pending[task.Result[int64]]()
		}
		c.read = nil
		if r.Err != nil {
			if r.Err != io.EOF {
				c.readErr = r.Err
			}
			c.close = c.file.Close(c.driver)
			continue
		}
		if _, err := c.out.Write(c.buf[:r.Value]); err != nil {
			c.readErr = err
			c.close = c.file.Close(c.driver)
			continue
		}
		c.offset += int64(r.Value)
	}
}

func (c *catFile) Drop() {
	task.Drop(c.open)
	task.Drop(c.read)
	task.Drop(c.close)
	if c.file != nil {
		c.file.Drop()
	}
}
