package slab_test

import (
	"testing"

	"github.com/brickingsoft/solo/pkg/slab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlab_InsertRemove(t *testing.T) {
	s := slab.New[string](4)
	a := s.Insert("a")
	b := s.Insert("b")
	c := s.Insert("c")
	assert.Equal(t, []int{0, 1, 2}, []int{a, b, c})
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, "b", s.Remove(b))
	assert.Nil(t, s.Get(b))
	assert.False(t, s.Contains(b))
	assert.Equal(t, 2, s.Len())

	require.NotNil(t, s.Get(c))
	*s.Get(c) = "cc"
	assert.Equal(t, "cc", *s.Get(c))
}

func TestSlab_ReuseMostRecentlyFreed(t *testing.T) {
	s := slab.New[int](0)
	for i := 0; i < 5; i++ {
		s.Insert(i)
	}
	s.Remove(1)
	s.Remove(3)
	assert.Equal(t, 3, s.Insert(30))
	assert.Equal(t, 1, s.Insert(10))
	assert.Equal(t, 5, s.Insert(50))
	assert.Equal(t, 6, s.Len())
}

func TestSlab_RemoveVacantPanics(t *testing.T) {
	s := slab.New[int](0)
	i := s.Insert(1)
	s.Remove(i)
	assert.Panics(t, func() { s.Remove(i) })
	assert.Panics(t, func() { s.Remove(42) })
	assert.True(t, s.IsEmpty())
}

func TestSlab_Range(t *testing.T) {
	s := slab.New[int](0)
	for i := 0; i < 4; i++ {
		s.Insert(i * 10)
	}
	s.Remove(2)
	var got []int
	s.Range(func(index int, v *int) bool {
		got = append(got, *v)
		return true
	})
	assert.Equal(t, []int{0, 10, 30}, got)

	count := 0
	s.Range(func(int, *int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
