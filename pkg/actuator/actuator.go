// Package actuator drives the throttle servo.
package actuator

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rear.go/pkg/hw"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

// Mode is a servo position requested over the bus.
type Mode uint8

// Modes.
const (
	Neutral Mode = 0x00
	Run     Mode = 0x01
	Choke   Mode = 0x02
)

var modeNames = map[Mode]string{
	Neutral: "neutral",
	Run:     "run",
	Choke:   "choke",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(0x%02x)", uint8(m))
}

// IsValid tells if m is a known mode.
func (m Mode) IsValid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Presets are the pulse widths of each mode.
type Presets struct {
	Period  time.Duration
	Neutral time.Duration
	Run     time.Duration
	Choke   time.Duration
}

// DefaultPresets drive a standard 50Hz hobby servo.
var DefaultPresets = Presets{
	Period:  20 * time.Millisecond,
	Neutral: 1500 * time.Microsecond,
	Run:     1000 * time.Microsecond,
	Choke:   2000 * time.Microsecond,
}

// PulseWidth returns the preset of m.
func (p Presets) PulseWidth(m Mode) (time.Duration, bool) {
	switch m {
	case Neutral:
		return p.Neutral, true
	case Run:
		return p.Run, true
	case Choke:
		return p.Choke, true
	}
	return 0, false
}

// Validate checks every pulse fits in the period.
func (p Presets) Validate() error {
	if p.Period <= 0 {
		return fmt.Errorf("servo period %v must be positive", p.Period)
	}
	for _, m := range []Mode{Neutral, Run, Choke} {
		w, _ := p.PulseWidth(m)
		if w <= 0 || w >= p.Period {
			return fmt.Errorf("servo %s pulse %v outside (0, %v)", m, w, p.Period)
		}
	}
	return nil
}

// Controller applies modes to a PWM channel and reflects the outcome
// in the status flags of a 10Hz record.
type Controller struct {
	PWM     hw.PWMOutput
	Presets Presets

	applied Mode
	valid   bool
}

// New creates a Controller.
func New(pwm hw.PWMOutput, presets Presets) *Controller {
	return &Controller{PWM: pwm, Presets: presets}
}

// Init sets the PWM period. It must be called before Apply.
func (c *Controller) Init() error {
	if err := c.PWM.SetPeriod(c.Presets.Period); err != nil {
		return fmt.Errorf("servo period: %w", err)
	}
	return nil
}

// Apply drives the servo to m and rewrites the servo bits of flags.
// It returns false and sets the servo error bit when m is unknown or
// the PWM write fails, in which case the previous pulse stays.
func (c *Controller) Apply(m Mode, flags *uint8) bool {
	*flags &^= telemetry.FlagsServo
	width, ok := c.Presets.PulseWidth(m)
	if !ok {
		glog.Warningf("servo: unknown %s", m)
		*flags |= telemetry.FlagServoError
		return false
	}
	if err := c.PWM.SetPulseWidth(width); err != nil {
		glog.Warningf("servo: apply %s failed: %v", m, err)
		*flags |= telemetry.FlagServoError
		return false
	}
	switch m {
	case Run:
		*flags |= telemetry.FlagRun
	case Choke:
		*flags |= telemetry.FlagChoke
	}
	c.applied, c.valid = m, true
	glog.V(2).Infof("servo: %s %v", m, width)
	return true
}

// Applied returns the last mode successfully applied.
func (c *Controller) Applied() (Mode, bool) {
	return c.applied, c.valid
}
