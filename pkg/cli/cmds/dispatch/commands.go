package dispatch

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rear.go/pkg/cli/sh"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

var (
	// PushCmd queues phases by hand.
	PushCmd = ishell.Cmd{
		Name:    "push",
		Aliases: []string{"p"},
		Help:    "PHASE...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PHASE required"))
				return
			}
			phases := make([]phase.Phase, 0, len(c.Args))
			for _, arg := range c.Args {
				p, err := phase.Parse(arg)
				if err != nil {
					c.Err(err)
					return
				}
				phases = append(phases, p)
			}
			if err := sh.BenchFrom(c).Push(phases...); err != nil {
				c.Err(err)
			}
		},
	}

	// StepCmd executes one phase.
	StepCmd = ishell.Cmd{
		Name:    "step",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			p, ok := sh.BenchFrom(c).Step()
			if !ok {
				c.Println("idle")
				return
			}
			c.Println(p)
		},
	}

	// DrainCmd executes phases until the queue is empty.
	DrainCmd = ishell.Cmd{
		Name:    "drain",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			done := sh.BenchFrom(c).Drain()
			names := make([]string, len(done))
			for n, p := range done {
				names[n] = p.String()
			}
			c.Println(strings.Join(names, " "))
		},
	}

	// StatusCmd prints a snapshot of the unit.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := sh.BenchFrom(c).Unit.Status()
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, s)
				return
			}
			c.Println(s.String())
		},
	}

	// SentCmd prints and clears the frames the unit wrote to the bus.
	SentCmd = ishell.Cmd{
		Name: "sent",
		Help: "",
		Func: func(c *ishell.Context) {
			for _, f := range sh.BenchFrom(c).Bus.Take() {
				c.Println(f.String())
			}
		},
	}

	// PacketsCmd prints the packets the base station received.
	PacketsCmd = ishell.Cmd{
		Name: "packets",
		Help: "",
		Func: func(c *ishell.Context) {
			b := sh.BenchFrom(c)
			pkts := b.Packets()
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, pkts)
				return
			}
			for n, p := range pkts {
				c.Printf("#%d temp=%.1fC", n, p.Temp.Motor)
				for _, r := range p.Records {
					c.Printf(" [rpm=%d speed=%d flags=%s]", r.RPM, r.Speed, telemetry.FlagString(r.Flags))
				}
				c.Printf(" gyro0=%v\n", p.IMU[0].Gyro)
			}
			st := b.Link.Stats()
			c.Printf("link: sent=%d retried=%d acked=%d no-ack=%d\n", st.Sent, st.Retried, st.Acked, st.NoAck)
		},
	}

	// DebugCmd asks the dispatcher to log a status snapshot.
	DebugCmd = ishell.Cmd{
		Name: "debug",
		Help: "",
		Func: func(c *ishell.Context) {
			if !sh.BenchFrom(c).Unit.RequestDebug() {
				c.Err(fmt.Errorf("debug rejected by the queue"))
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&PushCmd,
		&StepCmd,
		&DrainCmd,
		&StatusCmd,
		&SentCmd,
		&PacketsCmd,
		&DebugCmd,
	)
}
