// Package config loads the rear unit configuration: compiled defaults,
// overlaid by a YAML file, overlaid by command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/rear.go/pkg/actuator"
	"github.com/robotalks/rear.go/pkg/bus"
	"github.com/robotalks/rear.go/pkg/phase"
	"github.com/robotalks/rear.go/pkg/radio"
	"github.com/robotalks/rear.go/pkg/thermistor"
	"github.com/robotalks/rear.go/pkg/unit"
)

// Config is the complete configuration of a rear unit.
type Config struct {
	Unit    UnitConfig    `yaml:"unit"`
	Bus     BusConfig     `yaml:"bus"`
	Radio   RadioConfig   `yaml:"radio"`
	Servo   ServoConfig   `yaml:"servo"`
	Sensors SensorsConfig `yaml:"sensors"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// UnitConfig tunes the dispatcher.
type UnitConfig struct {
	ID              string        `yaml:"id"`
	PhaseBufferSize int           `yaml:"phase_buffer_size"`
	QueuePolicy     string        `yaml:"queue_policy"`
	FuelWindow      uint8         `yaml:"fuel_window"`
	FuelThreshold   uint8         `yaml:"fuel_threshold"`
	DebugInterval   time.Duration `yaml:"debug_interval"` // 0 disables
}

// BusConfig selects the CAN interface.
type BusConfig struct {
	Interface    string  `yaml:"interface"` // e.g. can0, "loopback" for none
	ReceiveDepth int     `yaml:"receive_depth"`
	IDs          bus.IDs `yaml:"ids"`
}

// RadioConfig configures the modem and the link.
type RadioConfig struct {
	Port         string        `yaml:"port"` // serial device or ws:// URL, empty disables the radio
	BaudRate     int           `yaml:"baud_rate"`
	Network      uint8         `yaml:"network"`
	Node         uint8         `yaml:"node"`
	Peer         uint8         `yaml:"peer"`
	FrequencyMHz uint16        `yaml:"frequency_mhz"`
	PowerLevel   uint8         `yaml:"power_level"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
	Retries      int           `yaml:"retries"`
}

// ServoConfig places the servo and its presets, in microseconds.
type ServoConfig struct {
	Pin       string `yaml:"pin"`
	PeriodUS  int    `yaml:"period_us"`
	NeutralUS int    `yaml:"neutral_us"`
	RunUS     int    `yaml:"run_us"`
	ChokeUS   int    `yaml:"choke_us"`
}

// AnalogConfig places an analog input.
type AnalogConfig struct {
	Pin       string  `yaml:"pin"`
	VRef      float64 `yaml:"vref"`
	FullScale int     `yaml:"full_scale"`
}

// DividerConfig describes the thermistor divider.
type DividerConfig struct {
	VCC   float64 `yaml:"vcc"`
	RTerm float64 `yaml:"r_term"`
}

// SensorsConfig places the sensors and auxiliary outputs. Empty pins
// are left unwired.
type SensorsConfig struct {
	Temperature  AnalogConfig  `yaml:"temperature"`
	Divider      DividerConfig `yaml:"divider"`
	FuelPin      string        `yaml:"fuel_pin"`
	RPMPin       string        `yaml:"rpm_pin"`
	IndicatorPin string        `yaml:"indicator_pin"`
	SignalPin    string        `yaml:"signal_pin"`
}

// MQTTConfig enables the telemetry mirror.
type MQTTConfig struct {
	URL string `yaml:"url"` // empty disables the mirror
}

// LoopbackInterface runs without a CAN interface.
const LoopbackInterface = "loopback"

var defaultConfig = Config{
	Unit: UnitConfig{
		PhaseBufferSize: 16,
		QueuePolicy:     phase.DropNewest.String(),
		FuelWindow:      100,
		FuelThreshold:   50,
	},
	Bus: BusConfig{
		Interface:    "can0",
		ReceiveDepth: bus.DefaultReceiveDepth,
		IDs:          bus.DefaultIDs,
	},
	Radio: RadioConfig{
		BaudRate:     radio.DefaultBaudRate,
		Network:      100,
		Node:         2,
		Peer:         1,
		FrequencyMHz: 915,
		PowerLevel:   20,
		AckTimeout:   radio.DefaultAckTimeout,
		Retries:      radio.DefaultRetries,
	},
	Servo: ServoConfig{
		Pin:       "P9_14",
		PeriodUS:  20000,
		NeutralUS: 1500,
		RunUS:     1000,
		ChokeUS:   2000,
	},
	Sensors: SensorsConfig{
		Temperature: AnalogConfig{Pin: "0", VRef: 1.8, FullScale: 4095},
		Divider:     DividerConfig{VCC: thermistor.Default.VCC, RTerm: thermistor.Default.RTerm},
		FuelPin:     "P8_11",
		RPMPin:      "P8_12",
	},
	MQTT: MQTTConfig{URL: "mqtt://localhost:1883/rear/"},
}

func init() {
	if val := os.Getenv("REAR_MQTT_URL"); val != "" {
		defaultConfig.MQTT.URL = val
	}
	if id, err := machineid.ID(); err == nil && len(id) >= 12 {
		defaultConfig.Unit.ID = id[:12]
	} else {
		defaultConfig.Unit.ID = "rear"
	}
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file on top of the defaults and validates it.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	conf := NewConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Unit.ID == "" {
		return fmt.Errorf("unit.id must be set")
	}
	if c.Unit.PhaseBufferSize <= 0 {
		return fmt.Errorf("unit.phase_buffer_size %d must be positive", c.Unit.PhaseBufferSize)
	}
	if _, err := phase.ParsePolicy(c.Unit.QueuePolicy); err != nil {
		return fmt.Errorf("unit.queue_policy: %w", err)
	}
	if c.Unit.FuelWindow == 0 || c.Unit.FuelThreshold >= c.Unit.FuelWindow {
		return fmt.Errorf("unit.fuel_threshold %d must be below fuel_window %d", c.Unit.FuelThreshold, c.Unit.FuelWindow)
	}
	if c.Unit.DebugInterval < 0 {
		return fmt.Errorf("unit.debug_interval %v must not be negative", c.Unit.DebugInterval)
	}
	if c.Bus.Interface == "" {
		return fmt.Errorf("bus.interface must be set, use %q to run without one", LoopbackInterface)
	}
	if err := c.Bus.IDs.Validate(); err != nil {
		return fmt.Errorf("bus.ids: %w", err)
	}
	if c.Radio.Port != "" {
		if c.Radio.Node == c.Radio.Peer {
			return fmt.Errorf("radio.node and radio.peer are both %d", c.Radio.Node)
		}
		if c.Radio.Node == radio.Broadcast {
			return fmt.Errorf("radio.node %d is the broadcast address", c.Radio.Node)
		}
		if c.Radio.AckTimeout <= 0 || c.Radio.Retries < 0 {
			return fmt.Errorf("radio: ack_timeout %v and retries %d invalid", c.Radio.AckTimeout, c.Radio.Retries)
		}
	}
	if err := c.Presets().Validate(); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	if c.Sensors.Divider.VCC <= 0 || c.Sensors.Divider.RTerm <= 0 {
		return fmt.Errorf("sensors.divider: vcc and r_term must be positive")
	}
	return nil
}

// Presets converts the servo presets.
func (c *Config) Presets() actuator.Presets {
	us := func(n int) time.Duration { return time.Duration(n) * time.Microsecond }
	return actuator.Presets{
		Period:  us(c.Servo.PeriodUS),
		Neutral: us(c.Servo.NeutralUS),
		Run:     us(c.Servo.RunUS),
		Choke:   us(c.Servo.ChokeUS),
	}
}

// ForUnit converts to the dispatcher configuration.
func (c *Config) ForUnit() unit.Config {
	policy, _ := phase.ParsePolicy(c.Unit.QueuePolicy)
	return unit.Config{
		IDs:             c.Bus.IDs,
		PhaseBufferSize: c.Unit.PhaseBufferSize,
		QueuePolicy:     policy,
		FuelWindow:      c.Unit.FuelWindow,
		FuelThreshold:   c.Unit.FuelThreshold,
		Divider:         thermistor.Divider{VCC: c.Sensors.Divider.VCC, RTerm: c.Sensors.Divider.RTerm},
		Servo:           c.Presets(),
	}
}
