//go:build linux

package driver

import (
	"golang.org/x/sys/unix"
)

var closeFd = unix.Close

// MaybeFd
// a completion result that may be an owned file descriptor.
// A descriptor is closed by Close unless it was taken with IntoInner.
type MaybeFd struct {
	value uint32
	isFd  bool
}

func NewFd(fd uint32) *MaybeFd {
	return &MaybeFd{value: fd, isFd: true}
}

func NewNonFd(v uint32) *MaybeFd {
	return &MaybeFd{value: v}
}

func (m *MaybeFd) Fd() uint32 {
	return m.value
}

func (m *MaybeFd) IsFd() bool {
	return m.isFd
}

// IntoInner
// takes the value. The caller owns the descriptor from now on.
func (m *MaybeFd) IntoInner() uint32 {
	m.isFd = false
	return m.value
}

func (m *MaybeFd) Close() error {
	if !m.isFd {
		return nil
	}
	m.isFd = false
	return closeFd(int(m.value))
}

// Drop
// closes a still owned descriptor, ignoring the error.
func (m *MaybeFd) Drop() {
	_ = m.Close()
}
