package freq

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rear.go/pkg/hw/sim"
)

func TestHz(t *testing.T) {
	testCases := []struct {
		name   string
		pulses uint32
		period uint64
		expect float64
	}{
		{"no period", 5, 0, 0},
		{"no pulses", 0, 0, 0},
		{"one per ms", 10, 10000, 1000},
		{"50 Hz", 25, 500000, 50},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expect, Hz(tc.pulses, tc.period), 1e-9)
		})
	}
}

func TestCounterReadReset(t *testing.T) {
	clock := &ManualClock{}
	c := NewCounter(clock.Micros())
	for i := 0; i < 10; i++ {
		c.Edge(clock.Advance(20000))
	}
	r := c.ReadReset(clock.Advance(5000))
	require.Equal(t, uint32(10), r.Pulses)
	require.Equal(t, uint64(200000), r.PeriodUS)
	require.InDelta(t, 50.0, r.Hz, 1e-9)
	require.True(t, r.Running())

	r = c.ReadReset(clock.Advance(100000))
	require.Zero(t, r.Pulses)
	require.Zero(t, r.Hz)
	require.False(t, r.Running())

	// the new window starts at the read, not at the last edge
	c.Edge(clock.Advance(1000))
	r = c.ReadReset(clock.Micros())
	require.Equal(t, uint64(1000), r.PeriodUS)
}

func TestCounterConcurrentEdges(t *testing.T) {
	c := NewCounter(0)
	var wg sync.WaitGroup
	var total uint32
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= 1000; i++ {
			c.Edge(i)
		}
	}()
	for i := 0; i < 50; i++ {
		total += c.ReadReset(0).Pulses
	}
	wg.Wait()
	total += c.ReadReset(0).Pulses
	require.Equal(t, uint32(1000), total)
}

func TestCounterWatch(t *testing.T) {
	clock := &ManualClock{}
	edge := &sim.Edge{}
	c := NewCounter(0)
	require.NoError(t, c.Watch(edge, clock))
	clock.Advance(100)
	require.NoError(t, edge.Fire(3))
	r := c.ReadReset(clock.Micros())
	require.Equal(t, uint32(3), r.Pulses)
	require.Equal(t, uint64(100), r.PeriodUS)
}

func TestEncodeRPM(t *testing.T) {
	require.Equal(t, uint16(0), EncodeRPM(0))
	require.Equal(t, uint16(0), EncodeRPM(-3))
	require.Equal(t, uint16(0), EncodeRPM(math.NaN()))
	// 50 Hz = 3000 rpm -> 3000 * 65535 / 5000
	require.Equal(t, uint16(39321), EncodeRPM(50))
	require.Equal(t, uint16(math.MaxUint16), EncodeRPM(5000.0/60))
	require.Equal(t, uint16(math.MaxUint16), EncodeRPM(1e6))
}
