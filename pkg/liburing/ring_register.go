//go:build linux

package liburing

import (
	"os"
	"runtime"
	"syscall"
	"unsafe"
)

const (
	IORING_REGISTER_BUFFERS uint32 = iota
	IORING_UNREGISTER_BUFFERS
	IORING_REGISTER_FILES
	IORING_UNREGISTER_FILES
	IORING_REGISTER_EVENTFD
	IORING_UNREGISTER_EVENTFD
	IORING_REGISTER_FILES_UPDATE
	IORING_REGISTER_EVENTFD_ASYNC
	IORING_REGISTER_PROBE
	IORING_REGISTER_PERSONALITY
	IORING_UNREGISTER_PERSONALITY
	IORING_REGISTER_RESTRICTIONS
	IORING_REGISTER_ENABLE_RINGS
)

func (ring *Ring) Register(opcode uint32, arg unsafe.Pointer, nrArgs uint32) (uint, syscall.Errno) {
	r1, _, errno := syscall.Syscall6(
		sysRegister,
		uintptr(ring.ringFd),
		uintptr(opcode),
		uintptr(arg),
		uintptr(nrArgs),
		0,
		0,
	)
	return uint(r1), errno
}

func (ring *Ring) RegisterProbe(probe *Probe, nrOps int) (uint, error) {
	result, err := ring.doRegister(IORING_REGISTER_PROBE, unsafe.Pointer(probe), uint32(nrOps))
	runtime.KeepAlive(probe)
	return result, err
}

// EnableRings
// enables a ring created with IORING_SETUP_R_DISABLED.
func (ring *Ring) EnableRings() (uint, error) {
	return ring.doRegister(IORING_REGISTER_ENABLE_RINGS, nil, 0)
}

func (ring *Ring) doRegister(opCode uint32, arg unsafe.Pointer, nrArgs uint32) (uint, error) {
	ret, errno := ring.Register(opCode, arg, nrArgs)
	if errno != 0 {
		return 0, os.NewSyscallError("io_uring_register", errno)
	}
	return ret, nil
}
