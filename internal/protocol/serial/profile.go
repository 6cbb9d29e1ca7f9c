// internal/protocol/serial/profile.go
package serial

import (
	"fmt"
	"time"
)

// DataBits is the number of data bits per character
type DataBits int

const (
	DataBitsFive  DataBits = 5
	DataBitsSix   DataBits = 6
	DataBitsSeven DataBits = 7
	DataBitsEight DataBits = 8
)

// FlowControl represents the line flow control mode
type FlowControl string

const (
	FlowControlNone     FlowControl = "None"
	FlowControlSoftware FlowControl = "Software"
	FlowControlHardware FlowControl = "Hardware"
)

// Parity represents the parity checking mode
type Parity string

const (
	ParityNone Parity = "None"
	ParityOdd  Parity = "Odd"
	ParityEven Parity = "Even"
)

// StopBits is the number of stop bits per character
type StopBits int

const (
	StopBitsOne StopBits = 1
	StopBitsTwo StopBits = 2
)

// Fallback values used when a raw option is missing or not recognised
const (
	DefaultDataBits    = DataBitsEight
	DefaultFlowControl = FlowControlNone
	DefaultParity      = ParityNone
	DefaultStopBits    = StopBitsTwo
	DefaultTimeoutMs   = 200
)

// RawConfig carries the caller supplied open options. A nil member means the
// option was not supplied.
type RawConfig struct {
	DataBits    *int    `json:"data_bits,omitempty"`
	FlowControl *string `json:"flow_control,omitempty"`
	Parity      *string `json:"parity,omitempty"`
	StopBits    *int    `json:"stop_bits,omitempty"`
	TimeoutMs   *int64  `json:"timeout,omitempty"`
}

// TransmissionProfile is the fully resolved set of line parameters for one
// connection. It is never modified after the connection is opened.
type TransmissionProfile struct {
	BaudRate    int         `json:"baud_rate"`
	DataBits    DataBits    `json:"data_bits"`
	FlowControl FlowControl `json:"flow_control"`
	Parity      Parity      `json:"parity"`
	StopBits    StopBits    `json:"stop_bits"`
	TimeoutMs   int64       `json:"timeout_ms"`
}

// Timeout returns the read/write timeout as a duration
func (p TransmissionProfile) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// String formats the profile in the usual 9600/8-N-2 notation
func (p TransmissionProfile) String() string {
	parity := "N"
	if p.Parity != "" {
		parity = string(p.Parity[0])
	}
	return fmt.Sprintf("%d/%d-%s-%d flow=%s timeout=%dms",
		p.BaudRate, p.DataBits, parity, p.StopBits, p.FlowControl, p.TimeoutMs)
}

// NewProfile builds the profile for baudRate from raw options. The baud rate
// is passed through untouched; the driver decides whether it is usable.
func NewProfile(baudRate int, raw RawConfig) TransmissionProfile {
	return TransmissionProfile{
		BaudRate:    baudRate,
		DataBits:    NormalizeDataBits(raw.DataBits),
		FlowControl: NormalizeFlowControl(raw.FlowControl),
		Parity:      NormalizeParity(raw.Parity),
		StopBits:    NormalizeStopBits(raw.StopBits),
		TimeoutMs:   NormalizeTimeout(raw.TimeoutMs),
	}
}

// NormalizeDataBits maps 5-8 to itself and anything else to 8
func NormalizeDataBits(value *int) DataBits {
	if value == nil {
		return DefaultDataBits
	}
	switch *value {
	case 5, 6, 7, 8:
		return DataBits(*value)
	default:
		return DefaultDataBits
	}
}

// NormalizeFlowControl accepts "Software" and "Hardware"; anything else is None
func NormalizeFlowControl(value *string) FlowControl {
	if value == nil {
		return DefaultFlowControl
	}
	switch FlowControl(*value) {
	case FlowControlSoftware:
		return FlowControlSoftware
	case FlowControlHardware:
		return FlowControlHardware
	default:
		return DefaultFlowControl
	}
}

// NormalizeParity accepts "Odd" and "Even"; anything else is None
func NormalizeParity(value *string) Parity {
	if value == nil {
		return DefaultParity
	}
	switch Parity(*value) {
	case ParityOdd:
		return ParityOdd
	case ParityEven:
		return ParityEven
	default:
		return DefaultParity
	}
}

// NormalizeStopBits maps 1 and 2 to themselves and anything else to 2
func NormalizeStopBits(value *int) StopBits {
	if value == nil {
		return DefaultStopBits
	}
	switch *value {
	case 1:
		return StopBitsOne
	case 2:
		return StopBitsTwo
	default:
		return DefaultStopBits
	}
}

// NormalizeTimeout keeps any non-negative value and falls back to 200ms
func NormalizeTimeout(value *int64) int64 {
	if value == nil || *value < 0 {
		return DefaultTimeoutMs
	}
	return *value
}

// RawConfigFromMap extracts open options from JSON decoded data. Values of an
// unexpected type are treated as not supplied.
func RawConfigFromMap(config map[string]interface{}) RawConfig {
	var raw RawConfig

	if v, ok := IntValue(config["data_bits"]); ok {
		raw.DataBits = &v
	}
	if v, ok := config["flow_control"].(string); ok {
		raw.FlowControl = &v
	}
	if v, ok := config["parity"].(string); ok {
		raw.Parity = &v
	}
	if v, ok := IntValue(config["stop_bits"]); ok {
		raw.StopBits = &v
	}
	if v, ok := IntValue(config["timeout"]); ok {
		ms := int64(v)
		raw.TimeoutMs = &ms
	}

	return raw
}

// IntValue accepts the numeric shapes encoding/json and Go callers produce.
// Fractional numbers are rejected rather than truncated.
func IntValue(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
