package llap

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Serial defaults for XRF/URF radios.
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 5 * time.Millisecond
)

// SerialConfig holds the radio port settings.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyAMA0 or /dev/ttyUSB0.
	Port string

	// BaudRate defaults to 9600.
	BaudRate int

	// ReadTimeout is how long a Read waits for the first byte before
	// returning (0, nil). It bounds the time one tick spends on the radio.
	ReadTimeout time.Duration
}

// OpenSerial opens the radio port at 8N1.
func OpenSerial(cfg SerialConfig) (Port, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port is required")
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Port, err)
	}

	return port, nil
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// ListPorts enumerates serial ports, with USB details where available.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}
	return ports, nil
}
