//go:build linux

package liburing

import (
	"syscall"
	"unsafe"
)

func New(options ...Option) (ring *Ring, err error) {
	opts := Options{
		Entries: DefaultEntries,
	}
	for _, o := range options {
		if err = o(&opts); err != nil {
			return
		}
	}

	params := &Params{
		cqEntries:    opts.CQEntries,
		flags:        opts.Flags,
		sqThreadCPU:  opts.SQThreadCPU,
		sqThreadIdle: opts.SQThreadIdle,
		wqFd:         opts.WQFd,
	}
	if err = params.Validate(); err != nil {
		return
	}

	ring = &Ring{
		sqRing: &SubmissionQueue{},
		cqRing: &CompletionQueue{},
		ringFd: -1,
	}
	if err = ring.setup(opts.Entries, params); err != nil {
		ring = nil
		return
	}
	return
}

type Ring struct {
	sqRing   *SubmissionQueue
	cqRing   *CompletionQueue
	flags    uint32
	ringFd   int
	features uint32
	args     GetEventsArg
}

func (ring *Ring) Flags() uint32 {
	return ring.flags
}

func (ring *Ring) Features() uint32 {
	return ring.features
}

func (ring *Ring) Fd() int {
	return ring.ringFd
}

// ExtArg
// reports whether waits can carry their own timeout.
func (ring *Ring) ExtArg() bool {
	return ring.features&IORING_FEAT_EXT_ARG != 0
}

func (ring *Ring) Close() (err error) {
	if ring.ringFd == -1 {
		return nil
	}
	sq := ring.sqRing
	sqeSize := unsafe.Sizeof(SubmissionQueueEntry{})
	if ring.flags&IORING_SETUP_SQE128 != 0 {
		sqeSize += 64
	}
	if sq.sqes != nil {
		_ = munmap(uintptr(unsafe.Pointer(sq.sqes)), sqeSize*uintptr(*sq.ringEntries))
	}
	unmapRings(sq, ring.cqRing)
	err = syscall.Close(ring.ringFd)
	ring.ringFd = -1
	return
}

func (ring *Ring) Probe() (*Probe, error) {
	probe := &Probe{}
	if _, err := ring.RegisterProbe(probe, probeOpsSize); err != nil {
		return nil, err
	}
	return probe, nil
}
