//go:build linux

package driver_test

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/solo/pkg/driver"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(t *testing.T, options ...driver.Option) *driver.Driver {
	t.Helper()
	d, err := driver.New(options...)
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		d.CancelAll()
		for i := 0; i < 100 && d.Len() > 0; i++ {
			_ = d.ParkTimeout(10 * time.Millisecond)
		}
		_ = d.Close()
	})
	return d
}

// wait polls op, parking in between, until it is ready.
func wait[T driver.OpAble](t *testing.T, d *driver.Driver, op *driver.Op[T]) driver.Completion[T] {
	t.Helper()
	cx := task.NewContext(task.NoopWaker())
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok := op.Poll(cx).Value(); ok {
			return c
		}
		require.NoError(t, d.ParkTimeout(50*time.Millisecond))
	}
	t.Fatal("operation did not complete")
	return driver.Completion[T]{}
}

func TestDriver_Nop(t *testing.T) {
	d := newDriver(t)
	op, err := driver.SubmitWith(d, &driver.Nop{})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	require.NoError(t, d.Submit())
	c := wait(t, d, op)
	require.NoError(t, c.Meta.Err)
	assert.Equal(t, uint32(0), c.Meta.Result.Fd())
	assert.False(t, c.Meta.Result.IsFd())
	assert.Equal(t, 0, d.Len())
	assert.Panics(t, func() { op.Poll(task.NewContext(task.NoopWaker())) })

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestDriver_FlushWhenFull(t *testing.T) {
	d := newDriver(t, driver.WithEntries(4))
	entries := int(d.Ring().SQEntries())

	ops := make([]*driver.Op[*driver.Nop], 0, entries+1)
	for i := 0; i < entries+1; i++ {
		op, err := driver.SubmitWith(d, &driver.Nop{})
		require.NoError(t, err)
		ops = append(ops, op)
	}
	assert.Equal(t, uint64(1), d.Stats().Flushes)

	for _, op := range ops {
		c := wait(t, d, op)
		assert.NoError(t, c.Meta.Err)
	}
	assert.Equal(t, 0, d.Len())
}

func TestDriver_TimeoutElapses(t *testing.T) {
	d := newDriver(t)
	start := time.Now()
	op, err := driver.SubmitWith(d, driver.NewTimeout(5*time.Millisecond))
	require.NoError(t, err)
	c := wait(t, d, op)
	assert.ErrorIs(t, c.Meta.Err, syscall.ETIME)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, c.Data.Duration())
}

func TestDriver_ParkTimeoutIdle(t *testing.T) {
	d := newDriver(t)
	start := time.Now()
	require.NoError(t, d.ParkTimeout(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, 0, d.Len())
}

func TestDriver_DropInFlight(t *testing.T) {
	d := newDriver(t)
	op, err := driver.SubmitWith(d, driver.NewTimeout(time.Hour))
	require.NoError(t, err)
	require.NoError(t, d.Submit())

	op.Drop()
	op.Drop()
	assert.Equal(t, uint64(1), d.Stats().Cancels)

	for i := 0; i < 100 && d.Len() > 0; i++ {
		require.NoError(t, d.ParkTimeout(10*time.Millisecond))
	}
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, uint64(1), d.Stats().Orphans)
}

func TestDriver_Canceller(t *testing.T) {
	d := newDriver(t)
	op, err := driver.SubmitWith(d, driver.NewTimeout(time.Hour))
	require.NoError(t, err)
	op.Canceller().Cancel()

	c := wait(t, d, op)
	assert.ErrorIs(t, c.Meta.Err, syscall.ECANCELED)
	op.Canceller().Cancel()
	assert.Equal(t, uint64(1), d.Stats().Cancels)
}

func TestDriver_Unparker(t *testing.T) {
	d := newDriver(t)
	unpark := d.Unparker()
	go func() {
		time.Sleep(20 * time.Millisecond)
		unpark()
	}()
	start := time.Now()
	require.NoError(t, d.ParkTimeout(5*time.Second))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Equal(t, uint64(1), d.Stats().Wakeups)
}

func TestDriver_CloseWithOperationsInFlight(t *testing.T) {
	d := newDriver(t)
	op, err := driver.SubmitWith(d, driver.NewTimeout(time.Hour))
	require.NoError(t, err)

	err = d.Close()
	require.Error(t, err)
	assert.True(t, driver.IsOperationsInFlight(err))

	assert.Equal(t, 1, d.CancelAll())
	c := wait(t, d, op)
	assert.ErrorIs(t, c.Meta.Err, syscall.ECANCELED)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = driver.SubmitWith(d, &driver.Nop{})
	assert.True(t, driver.IsClosed(err))
}
