package main

import (
	"context"
	"flag"
	"log"
	"os"

	fx "github.com/robotalks/rear.go/pkg/framework"
	"github.com/robotalks/rear.go/pkg/mirror"
	"github.com/robotalks/rear.go/pkg/mqtt"
	"github.com/robotalks/rear.go/pkg/radio"
	"github.com/robotalks/rear.go/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/rear/"

	serialPort string
	baudRate   = radio.DefaultBaudRate
	network    = 100
	node       = 1
)

func init() {
	if val := os.Getenv("REAR_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&serialPort, "serial", serialPort, "Act as the base station on this modem, a serial port or ws:// URL, instead of watching MQTT.")
	flag.IntVar(&baudRate, "baud", baudRate, "Modem baud rate.")
	flag.IntVar(&network, "network", network, "Radio network ID.")
	flag.IntVar(&node, "node", node, "Radio node ID of the base station.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if serialPort != "" {
		if err := baseStation(); err != nil {
			log.Fatalln(err)
		}
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	show := mqtt.Handler(func(topic string, payload []byte) {
		line, err := mirror.Format(topic, payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Println(line)
	})
	for _, filter := range []string{"+/bus/+", "+/radio", "+/meta"} {
		q.Sub(filter, show)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}

// baseStation receives packets from the modem, acknowledging them.
func baseStation() error {
	port, err := radio.Open(serialPort, baudRate)
	if err != nil {
		return err
	}
	link := radio.NewLink(port, uint8(network), uint8(node))
	link.Handler = radio.HandleFrameFunc(func(ctx context.Context, f *radio.Frame) {
		var p telemetry.Packet
		if err := p.UnmarshalBinary(f.Payload); err != nil {
			log.Printf("node %d seq %d: %v", f.Src, f.Seq, err)
			return
		}
		log.Printf("node %d seq %d: %s", f.Src, f.Seq, mirror.FormatPacket(p))
	})
	r := fx.NewRunner().HandleSignals()
	r.Go(fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, port, func() error { return link.Run(ctx) })
	}))
	err = r.Wait()
	st := link.Stats()
	log.Printf("received %d, duplicates %d, corrupted %d", st.Received, st.Duplicate, st.Corrupted)
	return err
}
