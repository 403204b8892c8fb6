package liburing

import (
	"strings"
)

const (
	// IORING_SETUP_IOPOLL
	// busy-wait for completions instead of IRQ notification. O_DIRECT files only.
	IORING_SETUP_IOPOLL uint32 = 1 << iota
	// IORING_SETUP_SQPOLL
	// a kernel thread polls the submission queue. Unprivileged since 5.13.
	// When the thread idles past sq_thread_idle the ring needs an explicit wakeup.
	IORING_SETUP_SQPOLL
	// IORING_SETUP_SQ_AFF
	// pin the sq poll thread to sq_thread_cpu. Only with IORING_SETUP_SQPOLL.
	IORING_SETUP_SQ_AFF
	// IORING_SETUP_CQSIZE
	// size the completion queue from cq_entries.
	IORING_SETUP_CQSIZE
	// IORING_SETUP_CLAMP
	// clamp entries to the kernel maximum instead of failing.
	IORING_SETUP_CLAMP
	// IORING_SETUP_ATTACH_WQ
	// share the async worker backend of wq_fd.
	IORING_SETUP_ATTACH_WQ
	// IORING_SETUP_R_DISABLED
	// start disabled, see IORING_REGISTER_ENABLE_RINGS. Since 5.10.
	IORING_SETUP_R_DISABLED
	// IORING_SETUP_SUBMIT_ALL
	// keep submitting a batch after one entry fails. Since 5.18.
	IORING_SETUP_SUBMIT_ALL
	// IORING_SETUP_COOP_TASKRUN
	// do not interrupt user space to run completion work. Since 5.19.
	IORING_SETUP_COOP_TASKRUN
	// IORING_SETUP_TASKRUN_FLAG
	// raise IORING_SQ_TASKRUN when completion work is pending. Since 5.19.
	IORING_SETUP_TASKRUN_FLAG
	// IORING_SETUP_SQE128
	// 128 byte submission entries. Since 5.19.
	IORING_SETUP_SQE128
	// IORING_SETUP_CQE32
	// 32 byte completion entries. Since 5.19.
	IORING_SETUP_CQE32
	// IORING_SETUP_SINGLE_ISSUER
	// a single thread submits. The kernel rejects others with EEXIST. Since 6.0.
	IORING_SETUP_SINGLE_ISSUER
	// IORING_SETUP_DEFER_TASKRUN
	// defer completion work to io_uring_enter with GETEVENTS.
	// Requires IORING_SETUP_SINGLE_ISSUER. Since 6.1.
	IORING_SETUP_DEFER_TASKRUN
	// IORING_SETUP_NO_MMAP
	// caller provided ring memory. Not supported by this binding.
	IORING_SETUP_NO_MMAP
	// IORING_SETUP_REGISTERED_FD_ONLY
	// return a registered ring index only. Not supported by this binding.
	IORING_SETUP_REGISTERED_FD_ONLY
	// IORING_SETUP_NO_SQARRAY
	// submit entries in ring order without the indirection array. Since 6.6.
	IORING_SETUP_NO_SQARRAY
	// IORING_SETUP_HYBRID_IOPOLL
	// delayed completion polling. Only with IORING_SETUP_IOPOLL.
	IORING_SETUP_HYBRID_IOPOLL
)

var setupFlagNames = map[string]uint32{
	"IORING_SETUP_IOPOLL":             IORING_SETUP_IOPOLL,
	"IORING_SETUP_SQPOLL":             IORING_SETUP_SQPOLL,
	"IORING_SETUP_SQ_AFF":             IORING_SETUP_SQ_AFF,
	"IORING_SETUP_CQSIZE":             IORING_SETUP_CQSIZE,
	"IORING_SETUP_CLAMP":              IORING_SETUP_CLAMP,
	"IORING_SETUP_ATTACH_WQ":          IORING_SETUP_ATTACH_WQ,
	"IORING_SETUP_R_DISABLED":         IORING_SETUP_R_DISABLED,
	"IORING_SETUP_SUBMIT_ALL":         IORING_SETUP_SUBMIT_ALL,
	"IORING_SETUP_COOP_TASKRUN":       IORING_SETUP_COOP_TASKRUN,
	"IORING_SETUP_TASKRUN_FLAG":       IORING_SETUP_TASKRUN_FLAG,
	"IORING_SETUP_SQE128":             IORING_SETUP_SQE128,
	"IORING_SETUP_CQE32":              IORING_SETUP_CQE32,
	"IORING_SETUP_SINGLE_ISSUER":      IORING_SETUP_SINGLE_ISSUER,
	"IORING_SETUP_DEFER_TASKRUN":      IORING_SETUP_DEFER_TASKRUN,
	"IORING_SETUP_NO_MMAP":            IORING_SETUP_NO_MMAP,
	"IORING_SETUP_REGISTERED_FD_ONLY": IORING_SETUP_REGISTERED_FD_ONLY,
	"IORING_SETUP_NO_SQARRAY":         IORING_SETUP_NO_SQARRAY,
	"IORING_SETUP_HYBRID_IOPOLL":      IORING_SETUP_HYBRID_IOPOLL,
}

// ParseSetupFlags
// maps a flag name to its bit. The IORING_SETUP_ prefix is optional and case is ignored.
// Unknown names yield 0.
func ParseSetupFlags(s string) uint32 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "IORING_SETUP_") {
		s = "IORING_SETUP_" + s
	}
	return setupFlagNames[s]
}

const (
	IORING_FEAT_SINGLE_MMAP uint32 = 1 << iota
	IORING_FEAT_NODROP
	IORING_FEAT_SUBMIT_STABLE
	IORING_FEAT_RW_CUR_POS
	IORING_FEAT_CUR_PERSONALITY
	IORING_FEAT_FAST_POLL
	IORING_FEAT_POLL_32BITS
	IORING_FEAT_SQPOLL_NONFIXED
	IORING_FEAT_EXT_ARG
	IORING_FEAT_NATIVE_WORKERS
	IORING_FEAT_RSRC_TAGS
	IORING_FEAT_CQE_SKIP
	IORING_FEAT_LINKED_FILE
	IORING_FEAT_REG_REG_RING
	IORING_FEAT_RECVSEND_BUNDLE
	IORING_FEAT_MIN_TIMEOUT
	IORING_FEAT_RW_ATTR
)

var featureNames = []string{
	"SINGLE_MMAP", "NODROP", "SUBMIT_STABLE", "RW_CUR_POS", "CUR_PERSONALITY",
	"FAST_POLL", "POLL_32BITS", "SQPOLL_NONFIXED", "EXT_ARG", "NATIVE_WORKERS",
	"RSRC_TAGS", "CQE_SKIP", "LINKED_FILE", "REG_REG_RING", "RECVSEND_BUNDLE",
	"MIN_TIMEOUT", "RW_ATTR",
}

// FeatureNames
// names of the feature bits set in features.
func FeatureNames(features uint32) []string {
	names := make([]string, 0, len(featureNames))
	for i, name := range featureNames {
		if features&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return names
}

const (
	IORING_SQ_NEED_WAKEUP uint32 = 1 << iota
	IORING_SQ_CQ_OVERFLOW
	IORING_SQ_TASKRUN
)

const (
	IORING_ENTER_GETEVENTS uint32 = 1 << iota
	IORING_ENTER_SQ_WAKEUP
	IORING_ENTER_SQ_WAIT
	IORING_ENTER_EXT_ARG
	IORING_ENTER_REGISTERED_RING
	IORING_ENTER_ABS_TIMER
	IORING_ENTER_EXT_ARG_REG
)
