// Package phase defines the units of work scheduled by the tick
// sources and the bus classifier, and the bounded queue carrying
// them to the dispatcher.
package phase

import "fmt"

// Phase names the next unit of work for the dispatcher.
type Phase uint8

// Phases, exactly one is processed per dispatch iteration.
const (
	Idle Phase = iota
	Temperature
	Fuel
	RPM
	Throttle
	Radio
	Debug

	// Count is the number of phases, used to size handler tables.
	Count int = iota
)

var names = [...]string{
	Idle:        "idle",
	Temperature: "temperature",
	Fuel:        "fuel",
	RPM:         "rpm",
	Throttle:    "throttle",
	Radio:       "radio",
	Debug:       "debug",
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	if p.IsValid() {
		return names[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// IsValid checks if p is a known phase.
func (p Phase) IsValid() bool {
	return int(p) < Count
}

// Latched reports whether p completes a request its producer will not
// repeat: the fuel window stays disarmed until the fuel phase runs, and
// a throttle request stays pending until the throttle phase runs.
func (p Phase) Latched() bool {
	return p == Fuel || p == Throttle
}

// Parse converts a phase name back to a Phase.
func Parse(name string) (Phase, error) {
	for n, s := range names {
		if s == name {
			return Phase(n), nil
		}
	}
	return Idle, fmt.Errorf("unknown phase %q", name)
}
