package fuel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorWindow(t *testing.T) {
	a := NewAccumulator(0)
	require.Equal(t, uint8(DefaultWindow), a.Size())
	for i := 0; i < DefaultWindow-1; i++ {
		require.False(t, a.Tick(i%4 == 0), "tick %d", i)
	}
	require.True(t, a.Tick(true))
	// overflow ticks are ignored
	require.True(t, a.Tick(true))

	w := a.Take()
	require.Equal(t, uint8(DefaultWindow), w.Ticks)
	require.Equal(t, uint8(26), w.Active)

	require.Equal(t, Window{}, a.Take())
	require.False(t, a.Tick(false))
}
