// Package slab provides index-stable storage with slot reuse.
package slab

type entry[T any] struct {
	value    T
	occupied bool
	next     int
}

// Slab
// index addressable storage. Removed slots are reused, most recently freed first.
// Not safe for concurrent use.
type Slab[T any] struct {
	entries []entry[T]
	free    int
	length  int
}

func New[T any](capacity int) *Slab[T] {
	return &Slab[T]{
		entries: make([]entry[T], 0, capacity),
		free:    -1,
	}
}

func (s *Slab[T]) Insert(v T) int {
	s.length++
	if s.free >= 0 {
		index := s.free
		e := &s.entries[index]
		s.free = e.next
		e.value = v
		e.occupied = true
		e.next = -1
		return index
	}
	s.entries = append(s.entries, entry[T]{value: v, occupied: true, next: -1})
	return len(s.entries) - 1
}

// Get
// pointer to the value at index, nil when vacant. Valid until the next Insert.
func (s *Slab[T]) Get(index int) *T {
	if index < 0 || index >= len(s.entries) || !s.entries[index].occupied {
		return nil
	}
	return &s.entries[index].value
}

func (s *Slab[T]) Contains(index int) bool {
	return index >= 0 && index < len(s.entries) && s.entries[index].occupied
}

// Remove
// takes the value out of index. Panics on a vacant slot.
func (s *Slab[T]) Remove(index int) T {
	if !s.Contains(index) {
		panic("slab: invalid key")
	}
	e := &s.entries[index]
	v := e.value
	var zero T
	e.value = zero
	e.occupied = false
	e.next = s.free
	s.free = index
	s.length--
	return v
}

func (s *Slab[T]) Len() int {
	return s.length
}

func (s *Slab[T]) IsEmpty() bool {
	return s.length == 0
}

// Range
// calls fn for every occupied slot in index order until fn returns false.
// fn must not insert or remove.
func (s *Slab[T]) Range(fn func(index int, v *T) bool) {
	for i := range s.entries {
		if s.entries[i].occupied {
			if !fn(i, &s.entries[i].value) {
				return
			}
		}
	}
}
