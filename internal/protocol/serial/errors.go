// internal/protocol/serial/errors.go
package serial

import "errors"

var (
	// ErrNoActiveConnection is returned when a transfer is requested before a
	// port has been opened. It signals a caller contract violation.
	ErrNoActiveConnection = errors.New("serial connection not initialized; open a port first")

	// ErrOpenFailed wraps any driver error raised while opening a port
	ErrOpenFailed = errors.New("failed to open serial port")

	// ErrTransport wraps driver errors raised during read or write
	ErrTransport = errors.New("serial transport failure")

	// ErrUnknownDriver is returned for an unsupported serial.driver setting
	ErrUnknownDriver = errors.New("unknown serial driver")
)
