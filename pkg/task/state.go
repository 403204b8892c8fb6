package task

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"
)

const (
	// RUNNING
	// the task is being polled.
	RUNNING uint64 = 0b1
	// COMPLETE
	// the task is complete. Never unset once set.
	COMPLETE uint64 = 0b10
	// NOTIFIED
	// the task has been pushed into a run queue.
	NOTIFIED uint64 = 0b100
	// JOIN_INTEREST
	// the join handle is still around.
	JOIN_INTEREST uint64 = 0b1000
	// JOIN_WAKER
	// a join waker has been registered.
	JOIN_WAKER uint64 = 0b10000

	lifecycleMask = RUNNING | COMPLETE
	stateMask     = lifecycleMask | NOTIFIED | JOIN_INTEREST | JOIN_WAKER
	refCountMask  = ^stateMask

	REF_COUNT_SHIFT = 5
	REF_ONE         = uint64(1) << REF_COUNT_SHIFT

	// INITIAL
	// two refs (runnable and join handle), join interest and notified.
	INITIAL = REF_ONE*2 | JOIN_INTEREST | NOTIFIED
)

type TransitionToIdle int

const (
	IdleOk TransitionToIdle = iota
	// IdleOkNotified
	// a wake arrived while running. The caller must schedule the task again.
	IdleOkNotified
)

type TransitionToNotified int

const (
	NotifiedDoNothing TransitionToNotified = iota
	// NotifiedSubmit
	// the caller must push the task into a run queue.
	NotifiedSubmit
)

// State
// packed task state word. All transitions are lock free.
type State struct {
	v atomic.Uint64
}

func NewState() *State {
	s := &State{}
	s.v.Store(INITIAL)
	return s
}

func (s *State) Load() Snapshot {
	return Snapshot(s.v.Load())
}

func (s *State) update(f func(curr Snapshot) (Snapshot, bool)) (Snapshot, bool) {
	curr := s.Load()
	for {
		next, ok := f(curr)
		if !ok {
			return curr, false
		}
		if s.v.CompareAndSwap(uint64(curr), uint64(next)) {
			return next, true
		}
		curr = s.Load()
	}
}

// TransitionToRunning
// idle and notified to running. Clears NOTIFIED so wakes during the poll are observed.
func (s *State) TransitionToRunning() {
	s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsNotified() || !curr.IsIdle() {
			panic(fmt.Sprintf("task: transition to running from %s", curr))
		}
		return curr&^Snapshot(NOTIFIED) | Snapshot(RUNNING), true
	})
}

// TransitionToIdle
// running to idle.
func (s *State) TransitionToIdle() TransitionToIdle {
	action := IdleOk
	s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsRunning() {
			panic(fmt.Sprintf("task: transition to idle from %s", curr))
		}
		action = IdleOk
		if curr.IsNotified() {
			action = IdleOkNotified
		}
		return curr &^ Snapshot(RUNNING), true
	})
	return action
}

// TransitionToComplete
// running to complete in one step, both bits flip together.
func (s *State) TransitionToComplete() Snapshot {
	const delta = Snapshot(RUNNING | COMPLETE)
	next, _ := s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsRunning() || curr.IsComplete() {
			panic(fmt.Sprintf("task: transition to complete from %s", curr))
		}
		return curr ^ delta, true
	})
	return next
}

// TransitionToNotified
// marks the task notified. At most one NotifiedSubmit is returned per idle period.
func (s *State) TransitionToNotified() TransitionToNotified {
	action := NotifiedDoNothing
	s.update(func(curr Snapshot) (Snapshot, bool) {
		switch {
		case curr.IsRunning():
			action = NotifiedDoNothing
			return curr | Snapshot(NOTIFIED), true
		case curr.IsComplete() || curr.IsNotified():
			action = NotifiedDoNothing
			return curr, true
		default:
			action = NotifiedSubmit
			return curr | Snapshot(NOTIFIED), true
		}
	})
	return action
}

// TransitionToNotifiedWithoutSubmit
// true when the notification needs no enqueue: the task is running (marked notified),
// complete, or already notified. False leaves the state untouched.
func (s *State) TransitionToNotifiedWithoutSubmit() bool {
	absorbed := false
	s.update(func(curr Snapshot) (Snapshot, bool) {
		switch {
		case curr.IsRunning():
			absorbed = true
			return curr | Snapshot(NOTIFIED), true
		case curr.IsComplete() || curr.IsNotified():
			absorbed = true
			return curr, true
		default:
			absorbed = false
			return curr, true
		}
	})
	return absorbed
}

// DropJoinHandleFast
// succeeds only when the join handle is dropped right after spawn.
func (s *State) DropJoinHandleFast() bool {
	return s.v.CompareAndSwap(INITIAL, (INITIAL-REF_ONE)&^JOIN_INTEREST)
}

// UnsetJoinInterested
// false when the task already completed.
func (s *State) UnsetJoinInterested() (Snapshot, bool) {
	return s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsJoinInterested() {
			panic(fmt.Sprintf("task: unset join interest from %s", curr))
		}
		if curr.IsComplete() {
			return curr, false
		}
		return curr &^ Snapshot(JOIN_INTEREST), true
	})
}

// SetJoinWaker
// false when the task already completed.
func (s *State) SetJoinWaker() (Snapshot, bool) {
	return s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsJoinInterested() || curr.HasJoinWaker() {
			panic(fmt.Sprintf("task: set join waker from %s", curr))
		}
		if curr.IsComplete() {
			return curr, false
		}
		return curr | Snapshot(JOIN_WAKER), true
	})
}

// UnsetWaker
// false when the task already completed.
func (s *State) UnsetWaker() (Snapshot, bool) {
	return s.update(func(curr Snapshot) (Snapshot, bool) {
		if !curr.IsJoinInterested() || !curr.HasJoinWaker() {
			panic(fmt.Sprintf("task: unset join waker from %s", curr))
		}
		if curr.IsComplete() {
			return curr, false
		}
		return curr &^ Snapshot(JOIN_WAKER), true
	})
}

func (s *State) RefInc() {
	prev := s.v.Add(REF_ONE) - REF_ONE
	if prev > math.MaxInt64 {
		_, _ = fmt.Fprintln(os.Stderr, "task: reference count overflow")
		os.Exit(2)
	}
}

// RefDec
// true when the caller held the last reference.
func (s *State) RefDec() bool {
	prev := Snapshot(s.v.Add(^(REF_ONE - 1)) + REF_ONE)
	if prev.RefCount() < 1 {
		panic("task: reference count underflow")
	}
	return prev.RefCount() == 1
}

// Snapshot
// a copy of the state word.
type Snapshot uint64

func (s Snapshot) IsIdle() bool {
	return uint64(s)&lifecycleMask == 0
}

func (s Snapshot) IsRunning() bool {
	return uint64(s)&RUNNING != 0
}

func (s Snapshot) IsComplete() bool {
	return uint64(s)&COMPLETE != 0
}

func (s Snapshot) IsNotified() bool {
	return uint64(s)&NOTIFIED != 0
}

func (s Snapshot) IsJoinInterested() bool {
	return uint64(s)&JOIN_INTEREST != 0
}

func (s Snapshot) HasJoinWaker() bool {
	return uint64(s)&JOIN_WAKER != 0
}

func (s Snapshot) RefCount() uint64 {
	return (uint64(s) & refCountMask) >> REF_COUNT_SHIFT
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"Snapshot{running: %t, complete: %t, notified: %t, join_interest: %t, join_waker: %t, refs: %d}",
		s.IsRunning(), s.IsComplete(), s.IsNotified(), s.IsJoinInterested(), s.HasJoinWaker(), s.RefCount(),
	)
}
