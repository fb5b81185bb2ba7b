// Package thermistor converts the voltage across the coolant
// thermistor divider to a temperature.
package thermistor

import (
	"errors"
	"math"
)

// Divider describes the thermistor voltage divider.
type Divider struct {
	VCC   float64 // supply voltage
	RTerm float64 // series resistor, ohms
}

// Default is the divider fitted on the rear unit.
var Default = Divider{VCC: 3.3, RTerm: 1000}

// Transfer function coefficients, fitted for the sensor in use.
const (
	gain  = 1 / 0.032
	scale = 1842.8
)

// ErrOutOfRange is returned for voltages at or beyond the rails.
var ErrOutOfRange = errors.New("thermistor voltage out of range")

// Celsius converts the measured voltage v to degrees Celsius:
// T = (1/0.032) * ln(1842.8 * (VCC - v) / (v * RTerm)).
func (d Divider) Celsius(v float64) (float64, error) {
	if v <= 0 || v >= d.VCC || d.RTerm <= 0 {
		return 0, ErrOutOfRange
	}
	return gain * math.Log(scale*(d.VCC-v)/(v*d.RTerm)), nil
}
