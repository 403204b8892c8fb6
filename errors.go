package solo

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/solo/pkg/task"
)

var (
	// ErrCanceled
	// a joined task was dropped before it completed.
	ErrCanceled        = task.ErrCanceled
	ErrRuntimeClosed   = errors.Define("runtime closed")
	ErrRuntimeRunning  = errors.Define("runtime is running")
	ErrInvalidOption   = errors.Define("invalid option")
	ErrInvalidConfig   = errors.Define("invalid config")
	ErrLeakedOperation = errors.Define("operations still in flight after close timeout")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "solo"
	errMetaOpKey  = "op"
)

const nestedRuntimePanic = "Can not start a runtime inside a runtime"

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

func IsRuntimeClosed(err error) bool {
	return errors.Is(err, ErrRuntimeClosed)
}

func invalidOption(name string, reason string) error {
	return errors.From(
		ErrInvalidOption,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, name),
		errors.WithMeta("reason", reason),
	)
}
