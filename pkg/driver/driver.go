//go:build linux

package driver

import (
	"encoding/binary"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	rerrors "github.com/brickingsoft/errors"
	"github.com/brickingsoft/solo/pkg/liburing"
	"github.com/brickingsoft/solo/pkg/slab"
	"github.com/brickingsoft/solo/pkg/task"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Driver
// owns one ring and the slots of every operation submitted to it.
// All methods except the function returned by Unparker must be called on the owning thread.
type Driver struct {
	ring     *liburing.Ring
	ops      *slab.Slab[Lifecycle]
	extArg   bool
	timespec syscall.Timespec
	eventFd  int
	armed    bool
	eventBuf [8]byte
	cqes     []*liburing.CompletionQueueEvent
	stats    Stats
	logger   zerolog.Logger
	// eventMu keeps Close from releasing eventFd under a running unpark.
	eventMu  sync.RWMutex
	closed   atomic.Bool
}

func New(options ...Option) (d *Driver, err error) {
	opts := Options{
		Entries: DefaultEntries,
		Logger:  zerolog.Nop(),
	}
	for _, o := range options {
		if err = o(&opts); err != nil {
			return
		}
	}

	ringOptions := make([]liburing.Option, 0, len(opts.RingOptions)+1)
	ringOptions = append(ringOptions, liburing.WithEntries(opts.Entries))
	ringOptions = append(ringOptions, opts.RingOptions...)
	ring, ringErr := liburing.New(ringOptions...)
	if ringErr != nil {
		err = wrapErr("setup", ringErr)
		return
	}

	eventFd, eventErr := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if eventErr != nil {
		_ = ring.Close()
		err = wrapErr("eventfd", eventErr)
		return
	}

	d = &Driver{
		ring:    ring,
		ops:     slab.New[Lifecycle](int(ring.SQEntries())),
		extArg:  ring.ExtArg(),
		eventFd: eventFd,
		cqes:    make([]*liburing.CompletionQueueEvent, ring.CQEntries()),
		logger:  opts.Logger,
	}
	d.logger.Debug().
		Uint32("sq_entries", ring.SQEntries()).
		Uint32("cq_entries", ring.CQEntries()).
		Bool("ext_arg", d.extArg).
		Strs("features", liburing.FeatureNames(ring.Features())).
		Msg("driver ready")
	return
}

func (d *Driver) Ring() *liburing.Ring {
	return d.ring
}

func (d *Driver) ExtArg() bool {
	return d.extArg
}

// Len
// number of operation slots still held, in flight or awaiting their owner.
func (d *Driver) Len() int {
	return d.ops.Len()
}

func (d *Driver) Stats() Stats {
	return d.stats
}

// Submit
// flushes prepared entries without waiting, then processes whatever completed.
func (d *Driver) Submit() error {
	if d.closed.Load() {
		return ErrClosed
	}
	err := d.submit()
	d.tick()
	return err
}

func (d *Driver) submit() error {
	for {
		_, err := d.ring.Submit()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EBUSY):
			d.tick()
		case errors.Is(err, syscall.EINTR):
		default:
			d.stats.SubmitErrs++
			return wrapErr("submit", err)
		}
	}
}

// Park
// blocks until at least one completion is available, then processes them.
func (d *Driver) Park() error {
	return d.park(-1)
}

// ParkTimeout
// like Park but returns once timeout elapses. An elapsed timeout is not an error.
func (d *Driver) ParkTimeout(timeout time.Duration) error {
	if timeout < 0 {
		timeout = 0
	}
	return d.park(timeout)
}

func (d *Driver) park(timeout time.Duration) error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.stats.Parks++
	if err := d.armWakeup(); err != nil {
		return err
	}

	var err error
	switch {
	case timeout < 0:
		_, err = d.ring.SubmitAndWait(1)
	case !d.extArg:
		sqe, sqeErr := d.getSQE()
		if sqeErr != nil {
			return sqeErr
		}
		d.timespec = syscall.NsecToTimespec(int64(timeout))
		sqe.PrepareTimeout(&d.timespec, 0, 0)
		sqe.SetData64(ControlTag(ControlTimeout).UserData())
		_, err = d.ring.SubmitAndWait(1)
	default:
		d.timespec = syscall.NsecToTimespec(int64(timeout))
		err = d.ring.SubmitAndWaitTimeout(1, &d.timespec)
	}
	if err != nil {
		switch {
		case errors.Is(err, syscall.ETIME), errors.Is(err, syscall.EINTR):
		default:
			return wrapErr("park", err)
		}
	}
	d.tick()
	return nil
}

// armWakeup
// keeps one read of the eventfd in flight so Unparker can interrupt a park.
func (d *Driver) armWakeup() error {
	if d.armed {
		return nil
	}
	sqe, err := d.getSQE()
	if err != nil {
		return err
	}
	sqe.PrepareRead(d.eventFd, uintptr(unsafe.Pointer(&d.eventBuf[0])), uint32(len(d.eventBuf)), 0)
	sqe.SetData64(ControlTag(ControlWakeup).UserData())
	d.armed = true
	return nil
}

// getSQE
// an entry for a control operation, flushing once when the queue is full.
func (d *Driver) getSQE() (*liburing.SubmissionQueueEntry, error) {
	if sqe := d.ring.GetSQE(); sqe != nil {
		return sqe, nil
	}
	d.stats.Flushes++
	if err := d.submit(); err != nil {
		return nil, err
	}
	if sqe := d.ring.GetSQE(); sqe != nil {
		return sqe, nil
	}
	return nil, ErrNoSubmissionEntry
}

// Unparker
// returns a function safe to call from any goroutine that interrupts a park.
func (d *Driver) Unparker() func() {
	return func() {
		d.eventMu.RLock()
		defer d.eventMu.RUnlock()
		if d.closed.Load() {
			return
		}
		var buf [8]byte
		binary.NativeEndian.PutUint64(buf[:], 1)
		_, _ = unix.Write(d.eventFd, buf[:])
	}
}

func (d *Driver) tick() {
	for {
		n := d.ring.PeekBatchCQE(d.cqes)
		if n == 0 {
			return
		}
		for i := uint32(0); i < n; i++ {
			cqe := d.cqes[i]
			d.cqes[i] = nil
			d.dispatch(cqe.UserData, cqe.Res, cqe.Flags)
		}
		d.ring.CQAdvance(n)
	}
}

func (d *Driver) dispatch(userData uint64, res int32, flags uint32) {
	tag := DecodeTag(userData)
	if tag.Kind == TagControl {
		d.stats.Controls++
		if tag.Control == ControlWakeup {
			d.armed = false
			d.stats.Wakeups++
		}
		return
	}
	l := d.ops.Get(tag.Slot)
	if l == nil {
		d.logger.Warn().Int("slot", tag.Slot).Int32("res", res).Msg("completion for a vacant slot")
		return
	}
	var (
		value uint32
		err   error
	)
	if res >= 0 {
		value = uint32(res)
	} else {
		err = syscall.Errno(-res)
	}
	d.stats.Completed++
	if l.complete(value, err, flags) {
		d.ops.Remove(tag.Slot)
		d.stats.Orphans++
	}
}

// SubmitWith
// queues data as a new operation. The entry reaches the kernel on the next Submit or Park.
func SubmitWith[T OpAble](d *Driver, data T) (*Op[T], error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if d.ring.SQSpaceLeft() == 0 {
		d.stats.Flushes++
		if err := d.submit(); err != nil {
			return nil, err
		}
	}
	sqe := d.ring.GetSQE()
	if sqe == nil {
		return nil, ErrNoSubmissionEntry
	}
	index := d.ops.Insert(newLifecycle(data.OpFlags()))
	data.Prepare(sqe)
	sqe.SetData64(SlotTag(index).UserData())
	d.stats.Submitted++
	return &Op[T]{driver: d, index: index, data: data}, nil
}

// PollOp
// Ready frees the slot, the caller then owns the result.
func (d *Driver) PollOp(index int, cx *task.Context) (CompletionMeta, bool) {
	l := d.ops.Get(index)
	if l == nil {
		panic("driver: poll of a vacant operation slot")
	}
	meta, ok := l.poll(cx)
	if ok {
		d.ops.Remove(index)
	}
	return meta, ok
}

// DropOp
// releases the slot now when the operation already completed, otherwise marks
// it ignored and cancels it unless skipCancel is set.
func (d *Driver) DropOp(index int, data any, skipCancel bool) {
	l := d.ops.Get(index)
	if l == nil {
		return
	}
	if l.drop(data) {
		d.ops.Remove(index)
		return
	}
	if !skipCancel {
		d.CancelOp(index)
	}
}

// CancelOp
// best effort asynchronous cancel. Failing to queue the request is ignored,
// the operation then completes on its own.
func (d *Driver) CancelOp(index int) {
	l := d.ops.Get(index)
	if l == nil || l.state == Completed {
		return
	}
	sqe := d.ring.GetSQE()
	if sqe == nil {
		_ = d.submit()
		if sqe = d.ring.GetSQE(); sqe == nil {
			return
		}
	}
	sqe.PrepareCancel64(SlotTag(index).UserData(), 0)
	sqe.SetData64(ControlTag(ControlCancel).UserData())
	d.stats.Cancels++
}

// CancelAll
// cancels every in-flight operation that allows it and returns how many requests were queued.
func (d *Driver) CancelAll() (n int) {
	indexes := make([]int, 0, d.ops.Len())
	d.ops.Range(func(index int, l *Lifecycle) bool {
		if l.state != Completed && !l.skipCancel {
			indexes = append(indexes, index)
		}
		return true
	})
	before := d.stats.Cancels
	for _, index := range indexes {
		d.CancelOp(index)
	}
	return int(d.stats.Cancels - before)
}

// Close
// releases the ring. Fails with ErrOperationsInFlight, leaving the driver usable,
// while any slot is still held.
func (d *Driver) Close() error {
	if d.closed.Load() {
		return nil
	}
	if n := d.ops.Len(); n > 0 {
		return rerrors.From(
			ErrOperationsInFlight,
			rerrors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			rerrors.WithMeta("in_flight", strconv.Itoa(n)),
		)
	}
	d.eventMu.Lock()
	d.closed.Store(true)
	eventErr := unix.Close(d.eventFd)
	d.eventMu.Unlock()
	ringErr := d.ring.Close()
	d.logger.Debug().Interface("stats", d.stats).Msg("driver closed")
	if ringErr != nil {
		return wrapErr("close", ringErr)
	}
	if eventErr != nil {
		return wrapErr("close", eventErr)
	}
	return nil
}
