//go:build linux

// Package board adapts the pins of a linux single board computer
// (Raspberry Pi, BeagleBone) to the hw interfaces.
package board

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all" // host drivers
)

// Board owns the GPIO driver of the host.
type Board struct {
	closers []func() error
}

// Open initializes the GPIO driver.
func Open() (*Board, error) {
	if err := embd.InitGPIO(); err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return &Board{}, nil
}

// Close releases all opened pins and the driver.
func (b *Board) Close() error {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			glog.Warningf("close pin: %v", err)
		}
	}
	b.closers = nil
	return embd.CloseGPIO()
}

// Analog reads an ADC pin scaled to volts.
type Analog struct {
	pin       embd.AnalogPin
	vref      float64
	fullScale int
}

// Analog opens an analog input. A raw reading of fullScale
// corresponds to vref volts.
func (b *Board) Analog(key string, vref float64, fullScale int) (*Analog, error) {
	if fullScale <= 0 {
		return nil, fmt.Errorf("analog %s: full scale must be positive", key)
	}
	pin, err := embd.NewAnalogPin(key)
	if err != nil {
		return nil, fmt.Errorf("analog %s: %w", key, err)
	}
	b.closers = append(b.closers, pin.Close)
	return &Analog{pin: pin, vref: vref, fullScale: fullScale}, nil
}

// ReadVolts implements hw.AnalogInput.
func (a *Analog) ReadVolts() (float64, error) {
	raw, err := a.pin.Read()
	if err != nil {
		return 0, err
	}
	return a.vref * float64(raw) / float64(a.fullScale), nil
}

// Digital is a GPIO pin.
type Digital struct {
	pin embd.DigitalPin
}

func (b *Board) digital(key string, dir embd.Direction) (*Digital, error) {
	pin, err := embd.NewDigitalPin(key)
	if err != nil {
		return nil, fmt.Errorf("gpio %s: %w", key, err)
	}
	if err = pin.SetDirection(dir); err != nil {
		pin.Close()
		return nil, fmt.Errorf("gpio %s direction: %w", key, err)
	}
	b.closers = append(b.closers, pin.Close)
	return &Digital{pin: pin}, nil
}

// Input opens a GPIO as input. It can also be watched for edges.
func (b *Board) Input(key string) (*Digital, error) {
	return b.digital(key, embd.In)
}

// Output opens a GPIO as output.
func (b *Board) Output(key string) (*Digital, error) {
	return b.digital(key, embd.Out)
}

// Read implements hw.DigitalInput.
func (d *Digital) Read() (bool, error) {
	v, err := d.pin.Read()
	return v == embd.High, err
}

// Write implements hw.DigitalOutput.
func (d *Digital) Write(high bool) error {
	if high {
		return d.pin.Write(embd.High)
	}
	return d.pin.Write(embd.Low)
}

// WatchFalling implements hw.EdgeInput.
func (d *Digital) WatchFalling(fn func()) error {
	return d.pin.Watch(embd.EdgeFalling, func(embd.DigitalPin) { fn() })
}

// StopWatching implements hw.EdgeInput.
func (d *Digital) StopWatching() error {
	return d.pin.StopWatching()
}

// PWM is a hardware PWM channel.
type PWM struct {
	pin embd.PWMPin
}

// PWM opens a PWM channel.
func (b *Board) PWM(key string) (*PWM, error) {
	pin, err := embd.NewPWMPin(key)
	if err != nil {
		return nil, fmt.Errorf("pwm %s: %w", key, err)
	}
	b.closers = append(b.closers, pin.Close)
	return &PWM{pin: pin}, nil
}

// SetPeriod implements hw.PWMOutput.
func (p *PWM) SetPeriod(d time.Duration) error {
	return p.pin.SetPeriod(int(d.Nanoseconds()))
}

// SetPulseWidth implements hw.PWMOutput.
func (p *PWM) SetPulseWidth(d time.Duration) error {
	return p.pin.SetDuty(int(d.Nanoseconds()))
}
