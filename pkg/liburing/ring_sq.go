//go:build linux

package liburing

import (
	"sync/atomic"
	"syscall"
	"unsafe"
)

type SubmissionQueue struct {
	head        *uint32
	tail        *uint32
	ringMask    *uint32
	ringEntries *uint32
	flags       *uint32
	dropped     *uint32
	array       *uint32
	sqes        *SubmissionQueueEntry
	ringSize    uint
	ringPtr     unsafe.Pointer
	sqeHead     uint32
	sqeTail     uint32
}

// GetSQE
// next free submission entry, nil when the queue is full.
func (ring *Ring) GetSQE() *SubmissionQueueEntry {
	sq := ring.sqRing
	var shift uint32
	if ring.flags&IORING_SETUP_SQE128 != 0 {
		shift = 1
	}
	head := atomic.LoadUint32(sq.head)
	next := sq.sqeTail + 1
	if next-head > *sq.ringEntries {
		return nil
	}
	sqe := (*SubmissionQueueEntry)(unsafe.Add(
		unsafe.Pointer(sq.sqes),
		uintptr((sq.sqeTail&*sq.ringMask)<<shift)*unsafe.Sizeof(SubmissionQueueEntry{}),
	))
	sq.sqeTail = next
	*sqe = SubmissionQueueEntry{}
	return sqe
}

func (ring *Ring) SQEntries() uint32 {
	return *ring.sqRing.ringEntries
}

// SQReady
// entries handed out by GetSQE and not yet consumed by the kernel.
func (ring *Ring) SQReady() uint32 {
	khead := *ring.sqRing.head
	if ring.flags&IORING_SETUP_SQPOLL != 0 {
		khead = atomic.LoadUint32(ring.sqRing.head)
	}
	return ring.sqRing.sqeTail - khead
}

func (ring *Ring) SQSpaceLeft() uint32 {
	return *ring.sqRing.ringEntries - ring.SQReady()
}

func (ring *Ring) sqRingNeedsEnter(submit uint32, flags *uint32) bool {
	if submit == 0 {
		return false
	}
	if ring.flags&IORING_SETUP_SQPOLL == 0 {
		return true
	}
	if atomic.LoadUint32(ring.sqRing.flags)&IORING_SQ_NEED_WAKEUP != 0 {
		*flags |= IORING_ENTER_SQ_WAKEUP
		return true
	}
	return false
}

func (ring *Ring) flushSQ() uint32 {
	sq := ring.sqRing
	tail := sq.sqeTail
	if sq.sqeHead != tail {
		sq.sqeHead = tail
		atomic.StoreUint32(sq.tail, tail)
	}
	return tail - atomic.LoadUint32(sq.head)
}

// Submit
// flushes prepared entries to the kernel without waiting.
func (ring *Ring) Submit() (uint, error) {
	return ring.submit(ring.flushSQ(), 0, false)
}

// SubmitAndWait
// flushes prepared entries and blocks until waitNr completions are available.
func (ring *Ring) SubmitAndWait(waitNr uint32) (uint, error) {
	return ring.submit(ring.flushSQ(), waitNr, false)
}

// SubmitAndWaitTimeout
// flushes prepared entries and blocks until waitNr completions are available or ts elapses.
// An elapsed wait yields syscall.ETIME. Needs IORING_FEAT_EXT_ARG.
func (ring *Ring) SubmitAndWaitTimeout(waitNr uint32, ts *syscall.Timespec) error {
	if !ring.ExtArg() {
		return ErrUnsupportedTimeout
	}
	ring.args = GetEventsArg{
		sigMaskSz: nSig / szDivider,
		ts:        uint64(uintptr(unsafe.Pointer(ts))),
	}
	data := getData{
		submit:   ring.flushSQ(),
		waitNr:   waitNr,
		getFlags: IORING_ENTER_EXT_ARG,
		sz:       int(unsafe.Sizeof(GetEventsArg{})),
		hasTS:    ts != nil,
		arg:      unsafe.Pointer(&ring.args),
	}
	_, err := ring.getCQE(&data)
	return err
}

func (ring *Ring) submit(submitted uint32, waitNr uint32, getEvents bool) (uint, error) {
	cqNeedsEnter := getEvents || waitNr > 0 || ring.cqRingNeedsEnter()
	var flags uint32
	if ring.sqRingNeedsEnter(submitted, &flags) || cqNeedsEnter {
		if cqNeedsEnter {
			flags |= IORING_ENTER_GETEVENTS
		}
		return ring.Enter(submitted, waitNr, flags, nil)
	}
	return uint(submitted), nil
}
