package sensors

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/cli/sh"
	"github.com/robotalks/rear.go/pkg/fuel"
)

// DefaultEdgeGap is the pickup edge spacing used when none is given,
// 50 Hz on the engine.
const DefaultEdgeGap = 20000

var (
	// EdgesCmd fires RPM pickup edges.
	EdgesCmd = ishell.Cmd{
		Name:    "edges",
		Aliases: []string{"e"},
		Help:    "COUNT [GAP(us)]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("COUNT required"))
				return
			}
			n, err := sh.IntArg(c, 0, 0, 32)
			if err != nil {
				c.Err(err)
				return
			}
			gap, err := sh.IntArg(c, 1, DefaultEdgeGap, 32)
			if err != nil {
				c.Err(err)
				return
			}
			if n < 0 || gap < 0 {
				c.Err(fmt.Errorf("COUNT and GAP must not be negative"))
				return
			}
			if err := sh.BenchFrom(c).Edges(int(n), uint64(gap)); err != nil {
				c.Err(err)
			}
		},
	}

	// ThrottleCmd sends a throttle frame.
	ThrottleCmd = ishell.Cmd{
		Name:    "throttle",
		Aliases: []string{"th"},
		Help:    "neutral|run|choke|NUMBER",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("MODE required"))
				return
			}
			mode, err := actuator.ParseMode(c.Args[0])
			if err != nil {
				// out of range values are sent as is, the unit flags them
				v, perr := strconv.ParseUint(c.Args[0], 0, 8)
				if perr != nil {
					c.Err(err)
					return
				}
				mode = actuator.Mode(v)
			}
			sh.BenchFrom(c).Throttle(mode)
		},
	}

	// IMUCmd sends an accelerometer and a gyroscope frame.
	IMUCmd = ishell.Cmd{
		Name: "imu",
		Help: "[AX AY AZ GX GY GZ]",
		Func: func(c *ishell.Context) {
			var v [6]int16
			for n := range v {
				val, err := sh.IntArg(c, n, 0, 16)
				if err != nil {
					c.Err(err)
					return
				}
				v[n] = int16(val)
			}
			sh.BenchFrom(c).IMU([3]int16{v[0], v[1], v[2]}, [3]int16{v[3], v[4], v[5]})
		},
	}

	// SpeedCmd sends a speed frame.
	SpeedCmd = ishell.Cmd{
		Name: "speed",
		Help: "VALUE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("VALUE required"))
				return
			}
			v, err := strconv.ParseUint(c.Args[0], 0, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			sh.BenchFrom(c).Speed(uint16(v))
		},
	}

	// TempCmd sets the thermistor divider voltage.
	TempCmd = ishell.Cmd{
		Name: "temp",
		Help: "VOLTS",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("VOLTS required"))
				return
			}
			v, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VOLTS: %v", err))
				return
			}
			sh.BenchFrom(c).Temp.Set(v)
		},
	}

	// FuelCmd sets the fuel sensor and samples it.
	FuelCmd = ishell.Cmd{
		Name: "fuel",
		Help: "low|high [TICKS]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LEVEL required"))
				return
			}
			b := sh.BenchFrom(c)
			switch c.Args[0] {
			case "low":
				b.FuelPin.Set(false)
			case "high":
				b.FuelPin.Set(true)
			default:
				c.Err(fmt.Errorf("expect low or high"))
				return
			}
			n, err := sh.IntArg(c, 1, fuel.DefaultWindow, 32)
			if err != nil {
				c.Err(err)
				return
			}
			if b.FuelTicks(int(n)) {
				c.Println("fuel phase queued")
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&EdgesCmd,
		&ThrottleCmd,
		&IMUCmd,
		&SpeedCmd,
		&TempCmd,
		&FuelCmd,
	)
}
