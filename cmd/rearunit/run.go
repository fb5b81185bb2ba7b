package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/config"
	fx "github.com/robotalks/rear.go/pkg/framework"
	"github.com/robotalks/rear.go/pkg/freq"
	"github.com/robotalks/rear.go/pkg/hw/board"
	"github.com/robotalks/rear.go/pkg/mirror"
	"github.com/robotalks/rear.go/pkg/mqtt"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/radio"
	"github.com/robotalks/rear.go/pkg/sched"
	"github.com/robotalks/rear.go/pkg/unit"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the unit on the board",
	Args:  cobra.NoArgs,
	RunE:  runUnit,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runUnit(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := assemble(conf)
	if err != nil {
		return err
	}
	defer st.Close()

	r := fx.NewRunner().HandleSignals()
	r.Add(st)
	glog.Infof("unit %s running", conf.Unit.ID)
	return r.Wait()
}

// station is a unit wired to the board peripherals.
type station struct {
	conf  *config.Config
	board *board.Board
	unit  *unit.Unit
	sched *sched.Scheduler
	rpm   *board.Digital

	transport bus.Transport
	receiver  *bus.Receiver
	link      *radio.Link
	port      io.Closer
	presence  *mqtt.Presence
}

func assemble(conf *config.Config) (st *station, err error) {
	st = &station{conf: conf}
	defer func() {
		if err != nil {
			st.Close()
			st = nil
		}
	}()

	if st.board, err = board.Open(); err != nil {
		return
	}
	u := unit.New(conf.ForUnit(), freq.NewSystemClock())
	st.unit = u

	sensors := conf.Sensors
	if u.Temperature, err = st.board.Analog(sensors.Temperature.Pin, sensors.Temperature.VRef, sensors.Temperature.FullScale); err != nil {
		return
	}
	fuelPin, err := st.board.Input(sensors.FuelPin)
	if err != nil {
		return
	}
	if st.rpm, err = st.board.Input(sensors.RPMPin); err != nil {
		return
	}
	servo, err := st.board.PWM(conf.Servo.Pin)
	if err != nil {
		return
	}
	u.Servo = actuator.New(servo, conf.Presets())
	if sensors.IndicatorPin != "" {
		if u.Indicator, err = st.board.Output(sensors.IndicatorPin); err != nil {
			return
		}
	}
	if sensors.SignalPin != "" {
		if u.Signal, err = st.board.PWM(sensors.SignalPin); err != nil {
			return
		}
	}

	if conf.Bus.Interface == config.LoopbackInterface {
		glog.Warning("running without a CAN interface")
		st.transport = bus.NewLoopback()
	} else if st.transport, err = bus.OpenSocketCAN(conf.Bus.Interface); err != nil {
		return
	}
	u.Bus = st.transport
	st.receiver = bus.NewReceiver(u, conf.Bus.ReceiveDepth)

	st.sched = sched.New(u.Queue, u.Fuel, fuelPin)
	u.Window = st.sched

	if err = st.openRadio(); err != nil {
		return
	}
	if err = st.openMirror(); err != nil {
		return
	}

	if err = u.Init(); err != nil {
		return
	}
	err = u.Counter.Watch(st.rpm, u.Clock)
	return
}

func (s *station) openRadio() error {
	rc := s.conf.Radio
	if rc.Port == "" {
		glog.Warning("radio disabled, telemetry stays queued")
		return nil
	}
	port, err := radio.Open(rc.Port, rc.BaudRate)
	if err != nil {
		return err
	}
	s.port = port
	s.link = radio.NewLink(port, rc.Network, rc.Node)
	s.link.AckTimeout, s.link.Retries = rc.AckTimeout, rc.Retries
	if err := s.link.Configure(radio.Settings{FrequencyMHz: rc.FrequencyMHz, PowerLevel: rc.PowerLevel}); err != nil {
		return fmt.Errorf("configure modem: %w", err)
	}
	s.unit.Radio = radio.NewTransmitter(s.link, rc.Peer)
	return nil
}

func (s *station) openMirror() error {
	if s.conf.MQTT.URL == "" {
		return nil
	}
	id := s.conf.Unit.ID
	meta, err := mirror.Encode(&mirror.Meta{
		Unit:    id,
		Network: s.conf.Radio.Network,
		Node:    s.conf.Radio.Node,
		Peer:    s.conf.Radio.Peer,
		Started: time.Now().UnixNano() / int64(time.Millisecond),
	})
	if err != nil {
		return err
	}
	if s.presence, err = mqtt.NewPresence(s.conf.MQTT.URL, "rearunit-"+id, mirror.MetaTopic(id), meta); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	m := mirror.New(s.presence.Queue, id, s.conf.Radio.Peer)
	s.unit.Bus = m.BusWriter(s.unit.Bus)
	if s.unit.Radio != nil {
		s.unit.Radio = m.Transmitter(s.unit.Radio)
	}
	return nil
}

// AddToRunner implements RunnableAdder.
func (s *station) AddToRunner(r *fx.Runner) {
	r.Go(
		fx.NamedRun("bus-rx", s.receiver),
		fx.NamedRun("bus-listen", s.receiver.Attach(s.transport)),
	)
	r.Add(s.sched, s.unit)
	if s.link != nil {
		r.Go(fx.NamedRun("radio", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, s.port, func() error { return s.link.Run(ctx) })
		})))
	}
	if s.presence != nil {
		r.Go(fx.NamedRun("mqtt", s.presence))
	}
	if d := s.conf.Unit.DebugInterval; d > 0 {
		r.Go(fx.NamedRun("debug", s.sched.Periodic(d, phase.Debug)))
	}
}

// Close releases the peripherals.
func (s *station) Close() error {
	if s.rpm != nil {
		s.rpm.StopWatching()
	}
	if s.port != nil {
		s.port.Close()
	}
	if s.board != nil {
		return s.board.Close()
	}
	return nil
}
