package task

// Poll
// outcome of polling a future, either ready with a value or pending.
type Poll[T any] struct {
	value T
	ready bool
}

func Ready[T any](v T) Poll[T] {
	return Poll[T]{value: v, ready: true}
}

func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

func (p Poll[T]) IsReady() bool {
	return p.ready
}

func (p Poll[T]) IsPending() bool {
	return !p.ready
}

// Value
// the ready value and whether the poll was ready.
func (p Poll[T]) Value() (T, bool) {
	return p.value, p.ready
}

// Future
// a value computed asynchronously.
//
// Poll must not block. When it returns pending it must have arranged for
// cx.Waker() to be woken once progress is possible.
type Future[T any] interface {
	Poll(cx *Context) Poll[T]
}

// Dropper
// implemented by futures that own resources released when the future is discarded.
// Drop is called once the owning task is done with the future, completed or not.
type Dropper interface {
	Drop()
}

// Drop
// drops v if it implements Dropper.
func Drop(v any) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}

// FutureFunc
// adapts a poll function.
type FutureFunc[T any] func(cx *Context) Poll[T]

func (f FutureFunc[T]) Poll(cx *Context) Poll[T] {
	return f(cx)
}

// ReadyFuture
// a future that completes immediately with v.
func ReadyFuture[T any](v T) Future[T] {
	return FutureFunc[T](func(*Context) Poll[T] {
		return Ready(v)
	})
}

// Result
// output of a joined task.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Drop
// drops the carried value, so a discarded Result releases whatever it holds.
func (r Result[T]) Drop() {
	Drop(r.Value)
}
