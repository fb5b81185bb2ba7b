package radio

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate of the modem serial port.
const DefaultBaudRate = 115200

// OpenSerial opens the modem serial port.
func OpenSerial(port string, baudRate int) (serial.Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return p, nil
}
