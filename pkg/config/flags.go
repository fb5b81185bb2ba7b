package config

import (
	"flag"
)

// Flags holds command line overrides. Only flags actually given on
// the command line are applied.
type Flags struct {
	fs   *flag.FlagSet
	conf Config
}

// SetupFlags registers override flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, conf: defaultConfig}
	fs.StringVar(&f.conf.Unit.ID, "unit-id", f.conf.Unit.ID, "Unit ID")
	fs.StringVar(&f.conf.Unit.QueuePolicy, "queue-policy", f.conf.Unit.QueuePolicy, "Phase queue full policy: drop-newest, drop-oldest or repeat-last")
	fs.DurationVar(&f.conf.Unit.DebugInterval, "debug-interval", f.conf.Unit.DebugInterval, "Interval of status dumps, 0 disables")
	fs.StringVar(&f.conf.Bus.Interface, "can", f.conf.Bus.Interface, "CAN interface, loopback for none")
	fs.StringVar(&f.conf.Radio.Port, "radio", f.conf.Radio.Port, "Radio modem serial port, empty disables")
	fs.StringVar(&f.conf.MQTT.URL, "mqtt", f.conf.MQTT.URL, "MQTT broker URL of the telemetry mirror, empty disables")
	return f
}

// Apply copies the flags given on the command line into c.
func (f *Flags) Apply(c *Config) {
	given := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { given[fl.Name] = true })
	f.ApplyIf(c, func(name string) bool { return given[name] })
}

// ApplyIf copies the flags for which changed is true into c. It serves
// command lines parsed by another flag package, e.g. cobra's
// Flags().Changed.
func (f *Flags) ApplyIf(c *Config, changed func(name string) bool) {
	f.fs.VisitAll(func(fl *flag.Flag) {
		if !changed(fl.Name) {
			return
		}
		switch fl.Name {
		case "unit-id":
			c.Unit.ID = f.conf.Unit.ID
		case "queue-policy":
			c.Unit.QueuePolicy = f.conf.Unit.QueuePolicy
		case "debug-interval":
			c.Unit.DebugInterval = f.conf.Unit.DebugInterval
		case "can":
			c.Bus.Interface = f.conf.Bus.Interface
		case "radio":
			c.Radio.Port = f.conf.Radio.Port
		case "mqtt":
			c.MQTT.URL = f.conf.MQTT.URL
		}
	})
}
