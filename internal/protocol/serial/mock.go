// internal/protocol/serial/mock.go
package serial

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// TestablePort implements Port with configurable behaviour for testing.
// An empty read buffer behaves like an elapsed timeout: 0 bytes, nil error.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadLatency adds a delay to each Read call
	ReadLatency time.Duration

	// WriteLatency adds a delay to each Write call
	WriteLatency time.Duration

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// WriteLimit caps how many bytes a single Write accepts when positive
	WriteLimit int

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	ReadCalls  int
	WriteCalls int
	CloseCalls int
}

// NewTestablePort creates a new TestablePort
func NewTestablePort() *TestablePort {
	return &TestablePort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read reads from the read buffer
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.ReadLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.ReadLatency)
		t.mu.Lock()
	}

	if t.ReadBuffer.Len() == 0 {
		return 0, nil
	}
	return t.ReadBuffer.Read(p)
}

// Write writes to the write buffer
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	if t.WriteLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.WriteLatency)
		t.mu.Lock()
	}

	if t.WriteLimit > 0 && len(p) > t.WriteLimit {
		p = p[:t.WriteLimit]
	}
	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.CloseCalls++
	t.Closed = true
	return t.CloseError
}

// AddReadData queues data for subsequent Read calls
func (t *TestablePort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
}

// GetWrittenData returns a copy of everything written to the port
func (t *TestablePort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

// IsClosed reports whether Close was called
func (t *TestablePort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.Closed
}

// MockOpenCall records details of an Open call
type MockOpenCall struct {
	Path    string
	Profile TransmissionProfile
}

// MockDriver implements Driver for testing. Each successful Open hands out
// NextPort if set, otherwise a fresh TestablePort.
type MockDriver struct {
	mu sync.Mutex

	// Error is returned by Open if set
	Error error

	// NextPort is returned by the next successful Open if set
	NextPort *TestablePort

	// OpenCalls records all Open calls
	OpenCalls []MockOpenCall

	// Ports records every port handed out, in order
	Ports []*TestablePort
}

// NewMockDriver creates a new MockDriver
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

// Name returns the driver name
func (d *MockDriver) Name() string {
	return "mock"
}

// Open returns a port or the configured error
func (d *MockDriver) Open(path string, profile TransmissionProfile) (Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.OpenCalls = append(d.OpenCalls, MockOpenCall{Path: path, Profile: profile})

	if d.Error != nil {
		return nil, d.Error
	}

	port := d.NextPort
	d.NextPort = nil
	if port == nil {
		port = NewTestablePort()
	}
	d.Ports = append(d.Ports, port)
	return port, nil
}

// SetError sets the error returned by subsequent Open calls
func (d *MockDriver) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Error = err
}

// LastCall returns the most recent Open call, or nil if none
func (d *MockDriver) LastCall() *MockOpenCall {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.OpenCalls) == 0 {
		return nil
	}
	return &d.OpenCalls[len(d.OpenCalls)-1]
}

// OpenCount returns how many times Open was called
func (d *MockDriver) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.OpenCalls)
}

// LastPort returns the most recently opened port, or nil if none
func (d *MockDriver) LastPort() *TestablePort {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.Ports) == 0 {
		return nil
	}
	return d.Ports[len(d.Ports)-1]
}

// MockEnumerator implements Enumerator for testing. Details, when set, is
// returned by ListDetailedPorts instead of plain entries built from Ports.
type MockEnumerator struct {
	Ports   []string
	Details []*PortDetails
	Error   error
}

// ListPorts returns the configured ports or error
func (e *MockEnumerator) ListPorts() ([]string, error) {
	if e.Error != nil {
		return nil, e.Error
	}
	return append([]string(nil), e.Ports...), nil
}

// ListDetailedPorts returns the configured details or the ports as non-USB
// details
func (e *MockEnumerator) ListDetailedPorts() ([]*PortDetails, error) {
	if e.Error != nil {
		return nil, e.Error
	}
	if e.Details != nil {
		return append([]*PortDetails(nil), e.Details...), nil
	}
	details := make([]*PortDetails, 0, len(e.Ports))
	for _, name := range e.Ports {
		details = append(details, &PortDetails{Name: name})
	}
	return details, nil
}
