package serialmux

import (
	"fmt"
)

// OpenSerialMux opens path through factory and wraps the port in a SerialMux.
// A nil factory opens real hardware.
func OpenSerialMux(factory SerialPortFactory, path string, opts PortOptions) (*SerialMux[SerialPorter], error) {
	if factory == nil {
		factory = RealSerialPortFactory{}
	}
	port, err := factory.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialMux(port), nil
}
