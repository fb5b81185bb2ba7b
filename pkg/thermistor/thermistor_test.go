package thermistor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCelsius(t *testing.T) {
	c, err := Default.Celsius(1.65)
	require.NoError(t, err)
	require.InDelta(t, math.Log(1.8428)/0.032, c, 1e-9)

	// higher voltage across the thermistor means colder
	hot, err := Default.Celsius(1.0)
	require.NoError(t, err)
	cold, err := Default.Celsius(2.0)
	require.NoError(t, err)
	require.Greater(t, hot, cold)

	for _, v := range []float64{0, -1, 3.3, 4} {
		_, err := Default.Celsius(v)
		require.ErrorIs(t, err, ErrOutOfRange, "v=%v", v)
	}
}
