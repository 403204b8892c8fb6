//go:build linux

package liburing

import (
	"sync/atomic"
	"syscall"
	"unsafe"
)

type GetEventsArg struct {
	sigMask   uint64
	sigMaskSz uint32
	pad       uint32
	ts        uint64
}

func (ring *Ring) CQEntries() uint32 {
	return *ring.cqRing.ringEntries
}

func (ring *Ring) CQReady() uint32 {
	return atomic.LoadUint32(ring.cqRing.tail) - *ring.cqRing.head
}

// CQAdvance
// releases n consumed completion entries back to the kernel.
func (ring *Ring) CQAdvance(n uint32) {
	if n > 0 {
		atomic.StoreUint32(ring.cqRing.head, *ring.cqRing.head+n)
	}
}

func (ring *Ring) CQESeen(cqe *CompletionQueueEvent) {
	if cqe != nil {
		ring.CQAdvance(1)
	}
}

func (ring *Ring) cqeAt(head uint32) *CompletionQueueEvent {
	var shift uint32
	if ring.flags&IORING_SETUP_CQE32 != 0 {
		shift = 1
	}
	return (*CompletionQueueEvent)(unsafe.Add(
		unsafe.Pointer(ring.cqRing.cqes),
		uintptr((head&*ring.cqRing.ringMask)<<shift)*unsafe.Sizeof(CompletionQueueEvent{}),
	))
}

// PeekBatchCQE
// fills cqes with ready completions without blocking and returns the count.
// The caller advances the queue with CQAdvance once done with them.
func (ring *Ring) PeekBatchCQE(cqes []*CompletionQueueEvent) uint32 {
	overflowChecked := false
	for {
		ready := ring.CQReady()
		if ready != 0 {
			count := uint32(len(cqes))
			if count > ready {
				count = ready
			}
			head := *ring.cqRing.head
			for i := uint32(0); i < count; i++ {
				cqes[i] = ring.cqeAt(head + i)
			}
			return count
		}
		if overflowChecked || !ring.cqRingNeedsFlush() {
			return 0
		}
		_, _ = ring.GetEvents()
		overflowChecked = true
	}
}

// GetEvents
// asks the kernel to flush overflowed or deferred completions.
func (ring *Ring) GetEvents() (uint, error) {
	return ring.Enter(0, 0, IORING_ENTER_GETEVENTS, nil)
}

func (ring *Ring) PeekCQE() (*CompletionQueueEvent, error) {
	if cqe := ring.peekCQE(nil); cqe != nil {
		return cqe, nil
	}
	return ring.WaitCQENr(0)
}

func (ring *Ring) WaitCQE() (*CompletionQueueEvent, error) {
	if cqe := ring.peekCQE(nil); cqe != nil {
		return cqe, nil
	}
	return ring.WaitCQENr(1)
}

func (ring *Ring) WaitCQENr(waitNr uint32) (*CompletionQueueEvent, error) {
	data := getData{
		waitNr: waitNr,
		sz:     nSig / szDivider,
	}
	return ring.getCQE(&data)
}

func (ring *Ring) peekCQE(available *uint32) *CompletionQueueEvent {
	tail := atomic.LoadUint32(ring.cqRing.tail)
	head := *ring.cqRing.head
	if available != nil {
		*available = tail - head
	}
	if tail == head {
		return nil
	}
	return ring.cqeAt(head)
}

func (ring *Ring) cqRingNeedsFlush() bool {
	return atomic.LoadUint32(ring.sqRing.flags)&(IORING_SQ_CQ_OVERFLOW|IORING_SQ_TASKRUN) != 0
}

func (ring *Ring) cqRingNeedsEnter() bool {
	return ring.flags&IORING_SETUP_IOPOLL != 0 || ring.cqRingNeedsFlush()
}

type getData struct {
	submit   uint32
	waitNr   uint32
	getFlags uint32
	sz       int
	hasTS    bool
	arg      unsafe.Pointer
}

func (ring *Ring) getCQE(data *getData) (*CompletionQueueEvent, error) {
	looped := false
	for {
		var (
			needEnter   bool
			flags       uint32
			nrAvailable uint32
		)
		cqe := ring.peekCQE(&nrAvailable)
		if cqe == nil && data.waitNr == 0 && data.submit == 0 {
			if looped || !ring.cqRingNeedsEnter() {
				return nil, syscall.EAGAIN
			}
			needEnter = true
		}
		if data.waitNr > nrAvailable || needEnter {
			flags = IORING_ENTER_GETEVENTS | data.getFlags
			needEnter = true
		}
		if ring.sqRingNeedsEnter(data.submit, &flags) {
			needEnter = true
		}
		if !needEnter {
			return cqe, nil
		}
		if looped && data.hasTS {
			if cqe == nil {
				return nil, syscall.ETIME
			}
			return cqe, nil
		}
		ret, err := ring.Enter2(data.submit, data.waitNr, flags, data.arg, data.sz)
		if err != nil {
			return nil, err
		}
		data.submit -= uint32(ret)
		if cqe != nil {
			return cqe, nil
		}
		looped = true
	}
}
