package phase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(q *Queue) []Phase {
	var out []Phase
	for {
		p, ok := q.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4, DropNewest)
	p, ok := q.Next()
	require.False(t, ok)
	require.Equal(t, Idle, p)

	for _, p := range []Phase{Temperature, RPM, Radio} {
		require.True(t, q.Push(p))
	}
	require.Equal(t, 3, q.Len())
	require.Equal(t, []Phase{Temperature, RPM, Radio}, drain(q))
	require.False(t, q.Saturated())
}

func TestQueueWrapAround(t *testing.T) {
	q := NewQueue(3, DropNewest)
	for i := 0; i < 10; i++ {
		p := Phase(1 + i%5)
		require.True(t, q.Push(p))
		got, ok := q.Next()
		require.True(t, ok)
		require.Equal(t, p, got)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueueFullPolicies(t *testing.T) {
	fill := func(q *Queue) {
		require.True(t, q.Push(Temperature))
		require.True(t, q.Push(RPM))
		require.True(t, q.Push(Fuel))
	}

	t.Run("drop-newest", func(t *testing.T) {
		q := NewQueue(3, DropNewest)
		fill(q)
		require.False(t, q.Push(Radio))
		require.Equal(t, 3, q.Len())
		p, ok := q.Next()
		require.True(t, ok)
		require.Equal(t, Temperature, p)
		require.True(t, q.Saturated())
		require.Equal(t, []Phase{RPM, Fuel}, drain(q))
		require.False(t, q.Saturated())
		stats := q.Stats()
		require.Equal(t, uint64(1), stats.Dropped)
		require.Equal(t, uint64(3), stats.Pushed)
		require.Equal(t, uint64(1), stats.Saturated)
	})

	t.Run("drop-oldest", func(t *testing.T) {
		q := NewQueue(3, DropOldest)
		fill(q)
		require.True(t, q.Push(Radio))
		require.Equal(t, 3, q.Len())
		require.Equal(t, []Phase{RPM, Fuel, Radio}, drain(q))
		require.Equal(t, uint64(1), q.Stats().Evicted)
	})

	t.Run("drop-oldest keeps latched", func(t *testing.T) {
		q := NewQueue(4, DropOldest)
		for _, p := range []Phase{Fuel, Throttle, RPM, Temperature} {
			require.True(t, q.Push(p))
		}
		require.True(t, q.Push(Radio))
		require.True(t, q.Push(Debug))
		require.Equal(t, []Phase{Fuel, Throttle, Radio, Debug}, drain(q))

		for _, p := range []Phase{Throttle, Fuel, Throttle, Throttle} {
			require.True(t, q.Push(p))
		}
		require.False(t, q.Push(RPM))
		require.Equal(t, []Phase{Throttle, Fuel, Throttle, Throttle}, drain(q))
		stats := q.Stats()
		require.Equal(t, uint64(2), stats.Evicted)
		require.Equal(t, uint64(1), stats.Dropped)
	})

	t.Run("repeat-last", func(t *testing.T) {
		q := NewQueue(3, RepeatLast)
		require.True(t, q.Push(Throttle))
		p, ok := q.Next()
		require.True(t, ok)
		require.Equal(t, Throttle, p)

		fill(q)
		require.False(t, q.Push(Radio))
		for i := 0; i < 5; i++ {
			p, ok := q.Next()
			require.True(t, ok)
			require.Equal(t, Throttle, p)
			require.True(t, q.Saturated())
		}
		require.Equal(t, 3, q.Len())
		stats := q.Stats()
		require.Equal(t, uint64(5), stats.Repeated)
		require.Equal(t, uint64(1), stats.Dropped)
	})
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	for _, policy := range []Policy{DropNewest, DropOldest, RepeatLast} {
		q := NewQueue(8, policy)
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(p Phase) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					q.Push(p)
					if n := q.Len(); n > q.Cap() {
						t.Errorf("queue holds %d > %d", n, q.Cap())
					}
				}
			}(Phase(1 + w))
		}
		wg.Wait()
		require.Equal(t, q.Cap(), q.Len(), policy.String())
	}
}

func TestQueueReady(t *testing.T) {
	q := NewQueue(2, DropNewest)
	select {
	case <-q.Ready():
		t.Fatal("unexpected ready signal")
	default:
	}
	q.Push(RPM)
	q.Push(RPM)
	select {
	case <-q.Ready():
	default:
		t.Fatal("expect ready signal")
	}
}

func TestPolicyNames(t *testing.T) {
	for _, policy := range []Policy{DropNewest, DropOldest, RepeatLast} {
		parsed, err := ParsePolicy(policy.String())
		require.NoError(t, err)
		require.Equal(t, policy, parsed)
	}
	_, err := ParsePolicy("drop-all")
	require.Error(t, err)
}

func TestPhaseLatched(t *testing.T) {
	var latched []Phase
	for p := Phase(0); int(p) < Count; p++ {
		if p.Latched() {
			latched = append(latched, p)
		}
	}
	require.Equal(t, []Phase{Fuel, Throttle}, latched)
}

func TestPhaseString(t *testing.T) {
	require.Equal(t, "radio", Radio.String())
	require.Equal(t, "phase(42)", Phase(42).String())
	p, err := Parse("rpm")
	require.NoError(t, err)
	require.Equal(t, RPM, p)
	_, err = Parse("warp")
	require.Error(t, err)
}
