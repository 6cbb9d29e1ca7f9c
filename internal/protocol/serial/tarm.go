// internal/protocol/serial/tarm.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
	"go.uber.org/zap"
)

var openTarmPort = tarm.OpenPort

// TarmDriver opens ports through github.com/tarm/serial
type TarmDriver struct {
	logger *zap.Logger
}

// NewTarmDriver creates the alternate driver
func NewTarmDriver(logger *zap.Logger) *TarmDriver {
	return &TarmDriver{
		logger: logger.With(zap.String("driver", DriverTarm)),
	}
}

// Name returns the driver name
func (d *TarmDriver) Name() string {
	return DriverTarm
}

// Open opens path with the given profile
func (d *TarmDriver) Open(path string, profile TransmissionProfile) (Port, error) {
	if profile.FlowControl != FlowControlNone {
		d.logger.Warn("Flow control is not supported by the tarm driver, ignoring",
			zap.String("port", path),
			zap.String("flow_control", string(profile.FlowControl)),
		)
	}

	port, err := openTarmPort(TarmConfig(path, profile))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &tarmPort{Port: port}, nil
}

// TarmConfig converts a profile into a tarm/serial config
func TarmConfig(path string, profile TransmissionProfile) *tarm.Config {
	config := &tarm.Config{
		Name:        path,
		Baud:        profile.BaudRate,
		ReadTimeout: profile.Timeout(),
		Size:        byte(profile.DataBits),
	}

	// tarm treats a zero timeout as "block forever"
	if config.ReadTimeout == 0 {
		config.ReadTimeout = time.Nanosecond
	}

	switch profile.Parity {
	case ParityOdd:
		config.Parity = tarm.ParityOdd
	case ParityEven:
		config.Parity = tarm.ParityEven
	default:
		config.Parity = tarm.ParityNone
	}

	switch profile.StopBits {
	case StopBitsOne:
		config.StopBits = tarm.Stop1
	default:
		config.StopBits = tarm.Stop2
	}

	return config
}

// tarmPort reports an elapsed read timeout as 0 bytes instead of io.EOF
type tarmPort struct {
	*tarm.Port
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}
