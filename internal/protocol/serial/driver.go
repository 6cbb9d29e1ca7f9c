// internal/protocol/serial/driver.go
package serial

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Port is an open device handle owned by exactly one connection. Reads are
// bounded by the profile timeout and return 0 bytes, nil error when it
// elapses without data.
type Port interface {
	io.ReadWriteCloser
}

// Driver opens named devices with a transmission profile
type Driver interface {
	Open(path string, profile TransmissionProfile) (Port, error)
	Name() string
}

// PortDetails describes an enumerated device
type PortDetails struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`

	// Filled from the known adapter table when the ids match
	Vendor string `json:"vendor,omitempty"`
	Model  string `json:"model,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// Enumerator lists device names present on the host
type Enumerator interface {
	ListPorts() ([]string, error)
	ListDetailedPorts() ([]*PortDetails, error)
}

// Driver names accepted by NewDriver
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// NewDriver creates the driver named by the serial.driver setting
func NewDriver(name string, logger *zap.Logger) (Driver, error) {
	switch strings.ToLower(name) {
	case "", DriverBugst:
		return NewBugstDriver(logger), nil
	case DriverTarm:
		return NewTarmDriver(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
}
