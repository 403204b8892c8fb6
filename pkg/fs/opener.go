//go:build linux

package fs

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const DefaultMode uint32 = 0o666

// Opener
// open options in the manner of os.OpenFile, validated before anything is submitted.
type Opener struct {
	read      bool
	write     bool
	append    bool
	truncate  bool
	create    bool
	createNew bool
	mode      uint32
}

func NewOpener() *Opener {
	return &Opener{mode: DefaultMode}
}

func (o *Opener) Read(read bool) *Opener {
	o.read = read
	return o
}

func (o *Opener) Write(write bool) *Opener {
	o.write = write
	return o
}

func (o *Opener) Append(a bool) *Opener {
	o.append = a
	return o
}

func (o *Opener) Truncate(truncate bool) *Opener {
	o.truncate = truncate
	return o
}

func (o *Opener) Create(create bool) *Opener {
	o.create = create
	return o
}

// CreateNew
// fail when the file exists. Overrides Create and Truncate.
func (o *Opener) CreateNew(createNew bool) *Opener {
	o.createNew = createNew
	return o
}

// Mode
// permission bits for a created file, before umask.
func (o *Opener) Mode(mode uint32) *Opener {
	o.mode = mode
	return o
}

func (o *Opener) AccessMode() (int, error) {
	switch {
	case o.append && o.read:
		return unix.O_RDWR | unix.O_APPEND, nil
	case o.append:
		return unix.O_WRONLY | unix.O_APPEND, nil
	case o.read && o.write:
		return unix.O_RDWR, nil
	case o.write:
		return unix.O_WRONLY, nil
	case o.read:
		return unix.O_RDONLY, nil
	default:
		return 0, syscall.EINVAL
	}
}

func (o *Opener) CreationMode() (int, error) {
	switch {
	case !o.write && !o.append:
		if o.truncate || o.create || o.createNew {
			return 0, syscall.EINVAL
		}
	case o.append:
		if o.truncate && !o.createNew {
			return 0, syscall.EINVAL
		}
	}
	switch {
	case o.createNew:
		return unix.O_CREAT | unix.O_EXCL, nil
	case o.create && o.truncate:
		return unix.O_CREAT | unix.O_TRUNC, nil
	case o.create:
		return unix.O_CREAT, nil
	case o.truncate:
		return unix.O_TRUNC, nil
	default:
		return 0, nil
	}
}

// Flags
// the full open(2) flags, always close-on-exec.
func (o *Opener) Flags() (int, error) {
	access, err := o.AccessMode()
	if err != nil {
		return 0, err
	}
	creation, err := o.CreationMode()
	if err != nil {
		return 0, err
	}
	return access | creation | unix.O_CLOEXEC, nil
}
