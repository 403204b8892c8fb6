//go:build linux

package process

import (
	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "process"
	errMetaOpKey  = "op"
)

// PinThread
// restricts the calling OS thread to one CPU: the index-th (modulo) of the
// CPUs it may currently run on. The caller must hold runtime.LockOSThread.
// restore puts the previous mask back.
func PinThread(index int) (restore func() error, err error) {
	var prev unix.CPUSet
	if err = unix.SchedGetaffinity(0, &prev); err != nil {
		err = affinityErr("sched_getaffinity", err)
		return
	}
	allowed := cpus(&prev)
	if len(allowed) == 0 || index < 0 {
		err = affinityErr("pin", unix.EINVAL)
		return
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(allowed[index%len(allowed)])
	if err = unix.SchedSetaffinity(0, &mask); err != nil {
		err = affinityErr("sched_setaffinity", err)
		return
	}

	restore = func() error {
		if setErr := unix.SchedSetaffinity(0, &prev); setErr != nil {
			return affinityErr("sched_setaffinity", setErr)
		}
		return nil
	}
	return
}

// Affinity
// the CPUs the calling thread may run on.
func Affinity() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return nil, affinityErr("sched_getaffinity", err)
	}
	return cpus(&mask), nil
}

func cpus(mask *unix.CPUSet) []int {
	n := mask.Count()
	out := make([]int, 0, n)
	for i := 0; len(out) < n; i++ {
		if mask.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}

func affinityErr(op string, err error) error {
	return errors.New(
		"set cpu affinity failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(err),
	)
}
