package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/phase"
)

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.NotEmpty(t, conf.Unit.ID)
	require.Equal(t, actuator.DefaultPresets, conf.Presets())

	uc := conf.ForUnit()
	require.Equal(t, phase.DropNewest, uc.QueuePolicy)
	require.Equal(t, 16, uc.PhaseBufferSize)
	require.Equal(t, uint8(50), uc.FuelThreshold)
	require.Equal(t, bus.DefaultIDs, uc.IDs)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rear.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
unit:
  id: bench
  queue_policy: repeat-last
bus:
  interface: vcan0
  ids:
    rpm: 0x302
radio:
  port: /dev/ttyUSB0
  ack_timeout: 60ms
servo:
  choke_us: 1900
`), 0644))

	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bench", conf.Unit.ID)
	require.Equal(t, "vcan0", conf.Bus.Interface)
	require.Equal(t, uint32(0x302), conf.Bus.IDs.RPM)
	require.Equal(t, bus.DefaultIDs.Throttle, conf.Bus.IDs.Throttle)
	require.Equal(t, 60*time.Millisecond, conf.Radio.AckTimeout)
	require.Equal(t, 1, conf.Radio.Retries)
	require.Equal(t, 1900*time.Microsecond, conf.Presets().Choke)
	require.Equal(t, phase.RepeatLast, conf.ForUnit().QueuePolicy)
}

func TestParseEmpty(t *testing.T) {
	conf, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, NewConfig(), conf)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown key", "unit:\n  colour: red\n"},
		{"policy", "unit:\n  queue_policy: drop-all\n"},
		{"threshold", "unit:\n  fuel_threshold: 100\n"},
		{"duplicate id", "bus:\n  ids:\n    rpm: 0x100\n"},
		{"same node", "radio:\n  port: /dev/ttyS0\n  node: 1\n  peer: 1\n"},
		{"servo pulse", "servo:\n  run_us: 30000\n"},
		{"no interface", "bus:\n  interface: \"\"\n"},
	}
	for _, tc := range testCases {
		_, err := Parse([]byte(tc.yaml))
		require.Error(t, err, tc.name)
	}
}

func TestFlagsOverrideOnlyGiven(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := SetupFlags(fs)
	require.NoError(t, fs.Parse([]string{"-can", "loopback", "-radio", "/dev/ttyACM0"}))

	conf, err := Parse([]byte("unit:\n  id: from-file\nmqtt:\n  url: mqtt://broker/x/\n"))
	require.NoError(t, err)
	f.Apply(conf)
	require.Equal(t, LoopbackInterface, conf.Bus.Interface)
	require.Equal(t, "/dev/ttyACM0", conf.Radio.Port)
	require.Equal(t, "from-file", conf.Unit.ID)
	require.Equal(t, "mqtt://broker/x/", conf.MQTT.URL)
}

func TestFlagsApplyIf(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := SetupFlags(fs)
	// values set behind the flag set's back, as pflag does
	require.NoError(t, fs.Lookup("queue-policy").Value.Set("drop-oldest"))
	require.NoError(t, fs.Lookup("mqtt").Value.Set(""))

	conf := NewConfig()
	f.Apply(conf)
	require.Equal(t, "drop-newest", conf.Unit.QueuePolicy)

	f.ApplyIf(conf, func(name string) bool { return name == "queue-policy" })
	require.Equal(t, "drop-oldest", conf.Unit.QueuePolicy)
	require.Equal(t, NewConfig().MQTT.URL, conf.MQTT.URL)
}

func TestYAMLRoundTrip(t *testing.T) {
	conf := NewConfig()
	conf.Unit.ID = "dump"
	data, err := conf.YAML()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, conf, parsed)
}
