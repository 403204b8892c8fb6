//go:build linux

package liburing

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/solo/pkg/kernel"
)

type SQRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	userAddr    uint64
}

type CQRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	userAddr    uint64
}

type Params struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        SQRingOffsets
	cqOff        CQRingOffsets
}

const defaultSQThreadIdle = 15000

// Validate
// drops flags the running kernel does not know and fixes up dependent fields.
func (params *Params) Validate() error {
	version, err := kernel.Get()
	if err != nil {
		return errors.New(
			"get kernel version failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(err),
		)
	}

	flags := uint32(0)
	want := params.flags

	if want&IORING_SETUP_IOPOLL != 0 {
		flags |= IORING_SETUP_IOPOLL
	}
	if want&IORING_SETUP_SQPOLL != 0 && version.GTE(5, 13, 0) {
		flags |= IORING_SETUP_SQPOLL
		if params.sqThreadIdle == 0 {
			params.sqThreadIdle = defaultSQThreadIdle
		}
	}
	if want&IORING_SETUP_SQ_AFF != 0 && flags&IORING_SETUP_SQPOLL != 0 {
		flags |= IORING_SETUP_SQ_AFF
	}
	if want&IORING_SETUP_CQSIZE != 0 && params.cqEntries > 0 {
		flags |= IORING_SETUP_CQSIZE
	}
	if want&IORING_SETUP_CLAMP != 0 {
		flags |= IORING_SETUP_CLAMP
	}
	if want&IORING_SETUP_ATTACH_WQ != 0 && params.wqFd > 0 {
		flags |= IORING_SETUP_ATTACH_WQ
	}
	if want&IORING_SETUP_R_DISABLED != 0 && version.GTE(5, 10, 0) {
		flags |= IORING_SETUP_R_DISABLED
	}
	if want&IORING_SETUP_SUBMIT_ALL != 0 && version.GTE(5, 18, 0) {
		flags |= IORING_SETUP_SUBMIT_ALL
	}
	noSQPoll := flags&IORING_SETUP_SQPOLL == 0
	if noSQPoll && want&IORING_SETUP_COOP_TASKRUN != 0 && version.GTE(5, 19, 0) {
		flags |= IORING_SETUP_COOP_TASKRUN
	}
	if want&IORING_SETUP_SINGLE_ISSUER != 0 && version.GTE(6, 0, 0) {
		flags |= IORING_SETUP_SINGLE_ISSUER
	}
	if noSQPoll && want&IORING_SETUP_DEFER_TASKRUN != 0 &&
		version.GTE(6, 1, 0) && flags&IORING_SETUP_SINGLE_ISSUER != 0 {
		flags |= IORING_SETUP_DEFER_TASKRUN
	}
	if noSQPoll && want&IORING_SETUP_TASKRUN_FLAG != 0 && version.GTE(5, 19, 0) &&
		flags&(IORING_SETUP_COOP_TASKRUN|IORING_SETUP_DEFER_TASKRUN) != 0 {
		flags |= IORING_SETUP_TASKRUN_FLAG
	}
	if want&IORING_SETUP_SQE128 != 0 && version.GTE(5, 19, 0) {
		flags |= IORING_SETUP_SQE128
	}
	if want&IORING_SETUP_CQE32 != 0 && version.GTE(5, 19, 0) {
		flags |= IORING_SETUP_CQE32
	}
	if want&IORING_SETUP_NO_SQARRAY != 0 && version.GTE(6, 6, 0) {
		flags |= IORING_SETUP_NO_SQARRAY
	}
	if want&IORING_SETUP_HYBRID_IOPOLL != 0 && flags&IORING_SETUP_IOPOLL != 0 {
		flags |= IORING_SETUP_HYBRID_IOPOLL
	}
	params.flags = flags
	return nil
}
