package liburing

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrUnsupportedTimeout = errors.Define("waiting with a timeout needs IORING_FEAT_EXT_ARG")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "liburing"
)
