//go:build !linux

package kernel

import "syscall"

func Get() (Version, error) {
	return Version{}, syscall.ENOSYS
}
