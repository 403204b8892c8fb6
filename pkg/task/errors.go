package task

import (
	"github.com/brickingsoft/errors"
)

var (
	// ErrCanceled
	// the task was dropped before it completed.
	ErrCanceled = errors.Define("task canceled")
)

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
