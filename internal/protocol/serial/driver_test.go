package serial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"
	"go.uber.org/zap"
)

func TestNewDriver(t *testing.T) {
	logger := zap.NewNop()

	driver, err := NewDriver("", logger)
	require.NoError(t, err)
	assert.Equal(t, DriverBugst, driver.Name())

	driver, err = NewDriver("TARM", logger)
	require.NoError(t, err)
	assert.Equal(t, DriverTarm, driver.Name())

	_, err = NewDriver("ftdi", logger)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestBugstDriver_OpenError(t *testing.T) {
	original := openBugstPort
	t.Cleanup(func() { openBugstPort = original })

	openErr := errors.New("no such file or directory")
	var gotPath string
	openBugstPort = func(path string, mode *bugst.Mode) (bugst.Port, error) {
		gotPath = path
		return nil, openErr
	}

	_, err := NewBugstDriver(zap.NewNop()).Open("/dev/ttyFAKE", NewProfile(9600, RawConfig{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, openErr)
	assert.Equal(t, "/dev/ttyFAKE", gotPath)
}

func TestSystemEnumerator(t *testing.T) {
	original := getPortsList
	t.Cleanup(func() { getPortsList = original })

	getPortsList = func() ([]string, error) {
		return []string{"/dev/ttyUSB0", "/dev/ttyS0"}, nil
	}

	ports, err := SystemEnumerator{}.ListPorts()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyS0"}, ports)

	getPortsList = func() ([]string, error) { return nil, errors.New("enumeration failed") }
	_, err = SystemEnumerator{}.ListPorts()
	assert.Error(t, err)
}
