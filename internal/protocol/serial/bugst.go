// internal/protocol/serial/bugst.go
package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// overridable in tests
var (
	openBugstPort       = bugst.Open
	getPortsList        = bugst.GetPortsList
	getDetailedPortList = enumerator.GetDetailedPortsList
)

// BugstDriver opens ports through go.bug.st/serial
type BugstDriver struct {
	logger *zap.Logger
}

// NewBugstDriver creates the default driver
func NewBugstDriver(logger *zap.Logger) *BugstDriver {
	return &BugstDriver{
		logger: logger.With(zap.String("driver", DriverBugst)),
	}
}

// Name returns the driver name
func (d *BugstDriver) Name() string {
	return DriverBugst
}

// Open opens path with the given profile and applies its read timeout
func (d *BugstDriver) Open(path string, profile TransmissionProfile) (Port, error) {
	mode := BugstMode(profile)

	port, err := openBugstPort(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := port.SetReadTimeout(profile.Timeout()); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	if profile.FlowControl == FlowControlSoftware {
		d.logger.Debug("Software flow control is not configurable on this driver",
			zap.String("port", path),
		)
	}

	return port, nil
}

// BugstMode converts a profile into the go.bug.st/serial mode. The library has
// no flow control switch, so Hardware asserts RTS and DTR on open.
func BugstMode(profile TransmissionProfile) *bugst.Mode {
	mode := &bugst.Mode{
		BaudRate: profile.BaudRate,
		DataBits: int(profile.DataBits),
	}

	switch profile.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	default:
		mode.Parity = bugst.NoParity
	}

	// bugst.StopBits is an enum, not a count: OneStopBit is 0
	switch profile.StopBits {
	case StopBitsOne:
		mode.StopBits = bugst.OneStopBit
	default:
		mode.StopBits = bugst.TwoStopBits
	}

	if profile.FlowControl == FlowControlHardware {
		mode.InitialStatusBits = &bugst.ModemOutputBits{
			RTS: true,
			DTR: true,
		}
	}

	return mode
}

// SystemEnumerator lists host ports through go.bug.st/serial
type SystemEnumerator struct{}

// ListPorts returns the device names known to the OS
func (SystemEnumerator) ListPorts() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// ListDetailedPorts returns device names with USB metadata where available
func (SystemEnumerator) ListDetailedPorts() ([]*PortDetails, error) {
	ports, err := getDetailedPortList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	details := make([]*PortDetails, 0, len(ports))
	for _, p := range ports {
		details = append(details, &PortDetails{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return details, nil
}
