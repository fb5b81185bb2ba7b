package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing(t *testing.T) {
	r := New[int](3)
	require.True(t, r.Empty())
	_, ok := r.Pop()
	require.False(t, ok)

	require.True(t, r.Push(1))
	require.True(t, r.Push(2))
	v, ok := r.Peek()
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, r.Len())

	v, ok = r.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)
	v, ok = r.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)
	require.True(t, r.Empty())
}

func TestRingEvictsOldest(t *testing.T) {
	r := New[string](2)
	require.True(t, r.Push("a"))
	require.True(t, r.Push("b"))
	require.False(t, r.Push("c"))
	require.Equal(t, 2, r.Len())
	require.Equal(t, uint64(1), r.Overruns())

	var out []string
	for !r.Empty() {
		v, _ := r.Pop()
		out = append(out, v)
	}
	require.Equal(t, []string{"b", "c"}, out)
}

func TestRingHoldsCopies(t *testing.T) {
	r := New[[2]int](2)
	v := [2]int{1, 2}
	r.Push(v)
	v[0] = 9
	got, _ := r.Pop()
	require.Equal(t, [2]int{1, 2}, got)
}
