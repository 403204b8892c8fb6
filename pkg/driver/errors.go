package driver

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrOperationsInFlight = errors.Define("driver has operations in flight")
	ErrClosed             = errors.Define("driver closed")
	ErrNoSubmissionEntry  = errors.Define("no submission queue entry available")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "driver"
	errMetaOpKey  = "op"
)

func IsOperationsInFlight(err error) bool {
	return errors.Is(err, ErrOperationsInFlight)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

func wrapErr(op string, err error) error {
	return errors.New(
		"driver "+op+" failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(err),
	)
}
