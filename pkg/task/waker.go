package task

// Waker
// wakes the task it was created for.
//
// Wake and Drop consume the waker; WakeByRef does not. Clone returns an independent waker.
type Waker interface {
	Wake()
	WakeByRef()
	Clone() Waker
	Drop()
}

// Context
// passed to Future.Poll.
type Context struct {
	waker Waker
	scope any
}

func NewContext(waker Waker) *Context {
	return &Context{waker: waker}
}

// WithScope
// a child context carrying an ambient value, such as a runtime handle.
func (cx *Context) WithScope(scope any) *Context {
	return &Context{waker: cx.waker, scope: scope}
}

func (cx *Context) Waker() Waker {
	return cx.waker
}

func (cx *Context) Scope() any {
	return cx.scope
}

type noopWaker struct{}

func (noopWaker) Wake()        {}
func (noopWaker) WakeByRef()   {}
func (noopWaker) Clone() Waker { return noopWaker{} }
func (noopWaker) Drop()        {}

func NoopWaker() Waker {
	return noopWaker{}
}

// WakerFunc
// adapts fn. Wake and WakeByRef both call fn.
type WakerFunc func()

func (fn WakerFunc) Wake()        { fn() }
func (fn WakerFunc) WakeByRef()   { fn() }
func (fn WakerFunc) Clone() Waker { return fn }
func (fn WakerFunc) Drop()        {}
