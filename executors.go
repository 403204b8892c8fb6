package solo

import (
	"runtime"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
)

var (
	executors     rxp.Executors = nil
	executorsErr  error
	executorsOnce sync.Once
)

// Startup
// replaces the process wide executors behind SharedThreadPool.
//
// Must be called before the first SpawnBlocking that uses the shared pool, later calls have no effect on it.
func Startup(options ...rxp.Option) (err error) {
	exec, err := rxp.New(options...)
	if err != nil {
		return errors.New("startup failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
	}
	executors = exec
	return
}

// Shutdown
// closes the shared executors and waits for running blocking tasks.
//
// Use rxp.WithCloseTimeout in Startup to bound the wait.
func Shutdown() error {
	exec, err := Executors()
	if err != nil {
		return err
	}
	runtime.SetFinalizer(exec, nil)
	return exec.Close()
}

// Executors
// the shared executors, created on first use.
func Executors() (rxp.Executors, error) {
	executorsOnce.Do(func() {
		if executors != nil {
			return
		}
		exec, err := rxp.New()
		if err != nil {
			executorsErr = errors.New("executors failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
			return
		}
		executors = exec
		runtime.SetFinalizer(executors, rxp.Executors.Close)
	})
	if executors != nil {
		return executors, nil
	}
	return nil, executorsErr
}
