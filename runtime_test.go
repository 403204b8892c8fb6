//go:build linux

package solo_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/solo"
	"github.com/brickingsoft/solo/pkg/fs"
	"github.com/brickingsoft/solo/pkg/process"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, options ...solo.Option) *solo.Runtime {
	t.Helper()
	rt, err := solo.Build(options...)
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, rt.Close())
	})
	return rt
}

// joinAll resolves once every join handle is ready, collecting the values in order.
func joinAll[T any](joins []*task.JoinHandle[T]) task.Future[[]task.Result[T]] {
	out := make([]task.Result[T], 0, len(joins))
	return task.FutureFunc[[]task.Result[T]](func(cx *task.Context) task.Poll[[]task.Result[T]] {
		for len(out) < len(joins) {
			r, ok := joins[len(out)].Poll(cx).Value()
			if !ok {
				return task.Pending[[]task.Result[T]]()
			}
			out = append(out, r)
		}
		return task.Ready(out)
	})
}

func TestBlockOn_Ready(t *testing.T) {
	rt := newRuntime(t)
	assert.Equal(t, 5, solo.BlockOn(rt, task.ReadyFuture(5)))
	assert.Equal(t, 6, solo.BlockOn(rt, task.ReadyFuture(6)))
}

func TestSpawn_ThousandTasksWithoutPark(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	joins := make([]*task.JoinHandle[int], 0, 1000)
	for i := 0; i < 1000; i++ {
		joins = append(joins, solo.Spawn(h, task.ReadyFuture(i)))
	}
	results := solo.BlockOn(rt, joinAll(joins))
	sum := 0
	for _, r := range results {
		require.NoError(t, r.Err)
		sum += r.Value
	}
	assert.Equal(t, 499500, sum)
	assert.Equal(t, uint64(0), h.Driver().Stats().Parks)
}

func TestSleep(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	start := time.Now()
	err := solo.BlockOn(rt, solo.Sleep(h, 10*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.GreaterOrEqual(t, h.Driver().Stats().Parks, uint64(1))
}

func TestSpawn_SleepingTasks(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	order := make([]int, 0, 3)
	joins := make([]*task.JoinHandle[int], 0, 3)
	for i, d := range []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		sleep := solo.Sleep(h, d)
		joins = append(joins, solo.Spawn(h, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
			err, ok := sleep.Poll(cx).Value()
			if !ok {
				return task.Pending[int]()
			}
			require.NoError(t, err)
			order = append(order, i)
			return task.Ready(i)
		})))
	}
	results := solo.BlockOn(rt, joinAll(joins))
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Value)
	}
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestBlockOn_Nested(t *testing.T) {
	rt := newRuntime(t)
	other := newRuntime(t)

	assert.PanicsWithValue(t, "Can not start a runtime inside a runtime", func() {
		solo.BlockOn(rt, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
			return task.Ready(solo.BlockOn(other, task.ReadyFuture(1)))
		}))
	})
	assert.PanicsWithValue(t, "Can not start a runtime inside a runtime", func() {
		solo.BlockOn(rt, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
			return task.Ready(solo.BlockOn(rt, task.ReadyFuture(1)))
		}))
	})
	assert.Equal(t, 2, solo.BlockOn(rt, task.ReadyFuture(2)))
	assert.Equal(t, 3, solo.BlockOn(other, task.ReadyFuture(3)))
}

func TestCurrent(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()
	assert.Nil(t, solo.Current(nil))

	join := solo.Spawn(h, task.FutureFunc[*solo.Handle](func(cx *task.Context) task.Poll[*solo.Handle] {
		return task.Ready(solo.Current(cx))
	}))
	got := solo.BlockOn(rt, task.FutureFunc[[2]*solo.Handle](func(cx *task.Context) task.Poll[[2]*solo.Handle] {
		r, ok := join.Poll(cx).Value()
		if !ok {
			return task.Pending[[2]*solo.Handle]()
		}
		return task.Ready([2]*solo.Handle{solo.Current(cx), r.Value})
	}))
	assert.Same(t, h, got[0])
	assert.Same(t, h, got[1])
}

func TestBlockOn_SelfWakingTaskDoesNotStarve(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	var stop atomic.Bool
	spins := 0
	solo.Spawn(h, task.FutureFunc[struct{}](func(cx *task.Context) task.Poll[struct{}] {
		if stop.Load() {
			return task.Ready(struct{}{})
		}
		spins++
		cx.Waker().WakeByRef()
		return task.Pending[struct{}]()
	})).Detach()

	sleep := solo.Sleep(h, 5*time.Millisecond)
	err := solo.BlockOn(rt, task.FutureFunc[error](func(cx *task.Context) task.Poll[error] {
		p := sleep.Poll(cx)
		if p.IsReady() {
			stop.Store(true)
		}
		return p
	}))
	require.NoError(t, err)
	assert.Greater(t, spins, 1)
}

func TestBlockOn_SelfWakingMainLetsOthersRun(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	var spawned *task.JoinHandle[int]
	var ran atomic.Bool
	sleep := solo.Sleep(h, 5*time.Millisecond)
	slept := false
	got := solo.BlockOn(rt, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
		if spawned == nil {
			spawned = solo.Spawn(h, task.FutureFunc[int](func(*task.Context) task.Poll[int] {
				ran.Store(true)
				return task.Ready(1)
			}))
		}
		if !slept {
			if err, ok := sleep.Poll(cx).Value(); ok {
				require.NoError(t, err)
				slept = true
			}
		}
		if ran.Load() && slept {
			return task.Ready(1)
		}
		cx.Waker().WakeByRef()
		return task.Pending[int]()
	}))
	assert.Equal(t, 1, got)
	assert.True(t, ran.Load())
	spawned.Detach()
}

func openFds(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(entries)
}

func TestSpawn_DetachedOpenClosesFile(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()
	path := filepath.Join(t.TempDir(), "detach.txt")
	require.NoError(t, os.WriteFile(path, []byte("detach"), 0o644))

	before := openFds(t)
	joins := make([]*task.JoinHandle[task.Result[*fs.File]], 0, 20)
	for i := 0; i < 20; i++ {
		open, err := fs.Open(h.Driver(), path)
		require.NoError(t, err)
		joins = append(joins, solo.Spawn(h, open))
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, solo.BlockOn(rt, solo.Sleep(h, 5*time.Millisecond)))
		if h.Driver().Len() == 0 {
			break
		}
	}
	require.Equal(t, 0, h.Driver().Len())
	assert.Greater(t, openFds(t), before)

	for _, join := range joins {
		join.Detach()
	}
	assert.Equal(t, before, openFds(t))
}

func TestBlockOn_YieldRunsOthersFirst(t *testing.T) {
	rt := newRuntime(t)
	h := rt.Handle()

	order := make([]string, 0, 2)
	yield := solo.Yield()
	a := solo.Spawn(h, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
		if yield.Poll(cx).IsPending() {
			return task.Pending[int]()
		}
		order = append(order, "a")
		return task.Ready(1)
	}))
	b := solo.Spawn(h, task.FutureFunc[int](func(cx *task.Context) task.Poll[int] {
		order = append(order, "b")
		return task.Ready(2)
	}))
	solo.BlockOn(rt, joinAll([]*task.JoinHandle[int]{a, b}))
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestBlockOn_ForeignWake(t *testing.T) {
	rt := newRuntime(t)

	var value atomic.Int64
	started := false
	start := time.Now()
	got := solo.BlockOn(rt, task.FutureFunc[int64](func(cx *task.Context) task.Poll[int64] {
		if v := value.Load(); v != 0 {
			return task.Ready(v)
		}
		if !started {
			started = true
			w := cx.Waker().Clone()
			go func() {
				time.Sleep(20 * time.Millisecond)
				value.Store(42)
				w.Wake()
			}()
		}
		return task.Pending[int64]()
	}))
	assert.Equal(t, int64(42), got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRuntime_Close(t *testing.T) {
	rt, err := solo.Build(solo.WithCloseTimeout(time.Second))
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	h := rt.Handle()

	sleeping := solo.Spawn(h, solo.Sleep(h, time.Hour))
	queued := solo.Spawn(h, task.ReadyFuture(1))
	assert.Equal(t, 0, solo.BlockOn(rt, task.ReadyFuture(0)))
	assert.Equal(t, 1, h.Driver().Len())

	never := solo.Spawn(h, task.ReadyFuture(2))
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
	assert.Equal(t, 0, h.Driver().Len())

	cx := task.NewContext(task.NoopWaker())
	r, ok := sleeping.Poll(cx).Value()
	require.True(t, ok)
	assert.True(t, solo.IsCanceled(r.Err))

	r2, ok := queued.Poll(cx).Value()
	require.True(t, ok)
	assert.Equal(t, 1, r2.Value)

	r3, ok := never.Poll(cx).Value()
	require.True(t, ok)
	assert.ErrorIs(t, r3.Err, solo.ErrCanceled)

	assert.Panics(t, func() { solo.BlockOn(rt, task.ReadyFuture(0)) })
	assert.Panics(t, func() { solo.Spawn(h, task.ReadyFuture(0)) })
}

func TestBlockOn_CPUAffinity(t *testing.T) {
	rt := newRuntime(t, solo.WithCPUAffinity(0))

	cpus := solo.BlockOn(rt, task.FutureFunc[[]int](func(cx *task.Context) task.Poll[[]int] {
		got, err := process.Affinity()
		require.NoError(t, err)
		return task.Ready(got)
	}))
	assert.Len(t, cpus, 1)
}
