package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/repository"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
}

type serialFixture struct {
	router  *gin.Engine
	driver  *serial.MockDriver
	manager *service.ConnectionManager
}

func newSerialFixture(t *testing.T, withJournal bool) *serialFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	driver := serial.NewMockDriver()
	manager := service.NewConnectionManager(driver, nil, &config.SerialConfig{MaxReadSize: 4096}, zap.NewNop())
	ports := service.NewPortService(&serial.MockEnumerator{Ports: []string{"/dev/ttyUSB1", "/dev/ttyUSB0"}}, zap.NewNop())

	var journal *service.JournalService
	if withJournal {
		journal = service.NewJournalService(repository.NewMemoryJournalRepository(10), zap.NewNop())
	}

	router := gin.New()
	NewSerialHandler(manager, ports, journal, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))

	return &serialFixture{router: router, driver: driver, manager: manager}
}

func (f *serialFixture) do(t *testing.T, method, path string, body interface{}) (int, testResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (f *serialFixture) open(t *testing.T) {
	t.Helper()
	code, _ := f.do(t, http.MethodPost, "/api/v1/serial/open", map[string]interface{}{
		"path":      "/dev/ttyUSB0",
		"baud_rate": 9600,
	})
	require.Equal(t, http.StatusOK, code)
}

func TestSerialHandler_ListPorts(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodGet, "/api/v1/serial/ports", nil)
	require.Equal(t, http.StatusOK, code)

	var ports PortListResponse
	require.NoError(t, json.Unmarshal(resp.Data, &ports))
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, ports.Ports)
	assert.Empty(t, ports.Details)

	code, resp = f.do(t, http.MethodGet, "/api/v1/serial/ports?detailed=true", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &ports))
	assert.Len(t, ports.Details, 2)
}

func TestSerialHandler_OpenAndStatus(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/open", map[string]interface{}{
		"path":      "/dev/ttyUSB0",
		"baud_rate": 115200,
		"parity":    "Even",
		"data_bits": 7,
	})
	require.Equal(t, http.StatusOK, code)

	var opened OpenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &opened))
	assert.True(t, opened.Opened)
	require.NotNil(t, opened.Connection)
	assert.Equal(t, serial.ParityEven, opened.Connection.Profile.Parity)
	assert.Equal(t, serial.DataBitsSeven, opened.Connection.Profile.DataBits)
	assert.Equal(t, serial.StopBitsTwo, opened.Connection.Profile.StopBits)

	code, resp = f.do(t, http.MethodGet, "/api/v1/serial/status", nil)
	require.Equal(t, http.StatusOK, code)

	var status service.ConnectionStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, service.StateOpen, status.State)
	assert.Equal(t, "/dev/ttyUSB0", status.Connection.Path)
}

func TestSerialHandler_OpenValidation(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/open", map[string]interface{}{"path": "/dev/ttyUSB0"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, string(resp.Data), "baud_rate")

	code, _ = f.do(t, http.MethodPost, "/api/v1/serial/open", map[string]interface{}{"path": "/dev/ttyUSB0", "baud_rate": "fast"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/api/v1/serial/open", "not json")
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Zero(t, f.driver.OpenCount())
}

func TestSerialHandler_OpenIgnoresMalformedOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]interface{}
		want    serial.TransmissionProfile
	}{
		{
			name:    "data bits as word",
			options: map[string]interface{}{"data_bits": "eight"},
			want:    serial.NewProfile(9600, serial.RawConfig{}),
		},
		{
			name:    "fractional data bits",
			options: map[string]interface{}{"data_bits": 7.5},
			want:    serial.NewProfile(9600, serial.RawConfig{}),
		},
		{
			name:    "numeric parity",
			options: map[string]interface{}{"parity": 1, "stop_bits": 1},
			want: serial.TransmissionProfile{
				BaudRate:    9600,
				DataBits:    serial.DefaultDataBits,
				FlowControl: serial.DefaultFlowControl,
				Parity:      serial.DefaultParity,
				StopBits:    serial.StopBitsOne,
				TimeoutMs:   serial.DefaultTimeoutMs,
			},
		},
		{
			name:    "nested config",
			options: map[string]interface{}{"config": map[string]interface{}{"parity": "Even", "timeout": "soon"}},
			want: serial.TransmissionProfile{
				BaudRate:    9600,
				DataBits:    serial.DefaultDataBits,
				FlowControl: serial.DefaultFlowControl,
				Parity:      serial.ParityEven,
				StopBits:    serial.DefaultStopBits,
				TimeoutMs:   serial.DefaultTimeoutMs,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSerialFixture(t, false)

			body := map[string]interface{}{"path": "COM_TEST", "baud_rate": 9600}
			for k, v := range tt.options {
				body[k] = v
			}

			code, resp := f.do(t, http.MethodPost, "/api/v1/serial/open", body)
			require.Equal(t, http.StatusOK, code)
			assert.True(t, resp.Success)
			require.Equal(t, 1, f.driver.OpenCount())
			assert.Equal(t, tt.want, f.driver.LastCall().Profile)
		})
	}
}

func TestSerialHandler_OpenFailure(t *testing.T) {
	f := newSerialFixture(t, false)
	f.driver.SetError(errors.New("no such file or directory"))

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/open", map[string]interface{}{
		"path":      "/dev/ttyUSB9",
		"baud_rate": 9600,
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PORT_UNAVAILABLE", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "no such file or directory")

	var opened OpenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &opened))
	assert.False(t, opened.Opened)
}

func TestSerialHandler_TransfersWithoutConnection(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/write", WriteRequest{Data: "AT\r\n"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_ACTIVE_CONNECTION", resp.Error.Code)

	code, resp = f.do(t, http.MethodPost, "/api/v1/serial/read", ReadRequest{Size: 10})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "NO_ACTIVE_CONNECTION", resp.Error.Code)
}

func TestSerialHandler_WriteEncodings(t *testing.T) {
	f := newSerialFixture(t, false)
	f.open(t)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/write", WriteRequest{Data: "AT\r\n"})
	require.Equal(t, http.StatusOK, code)

	var written WriteResponse
	require.NoError(t, json.Unmarshal(resp.Data, &written))
	assert.Equal(t, 4, written.BytesWritten)

	code, _ = f.do(t, http.MethodPost, "/api/v1/serial/write", WriteRequest{Data: "1b 40", Encoding: EncodingHex})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []byte("AT\r\n\x1b\x40"), f.driver.LastPort().GetWrittenData())

	code, _ = f.do(t, http.MethodPost, "/api/v1/serial/write", WriteRequest{Data: "zz", Encoding: EncodingHex})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSerialHandler_WriteTransportError(t *testing.T) {
	f := newSerialFixture(t, false)
	f.open(t)
	f.driver.LastPort().WriteError = errors.New("input/output error")

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/write", WriteRequest{Data: "AT"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "TRANSPORT_ERROR", resp.Error.Code)
	assert.True(t, f.manager.IsOpen())
}

func TestSerialHandler_Read(t *testing.T) {
	f := newSerialFixture(t, false)
	f.open(t)
	f.driver.LastPort().AddReadData([]byte("OK\r\n"))

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/read", ReadRequest{Size: 2, Encoding: EncodingHex})
	require.Equal(t, http.StatusOK, code)

	var read ReadResponse
	require.NoError(t, json.Unmarshal(resp.Data, &read))
	assert.Equal(t, 2, read.BytesRead)
	assert.Equal(t, "4f4b", read.Data)
	assert.Equal(t, EncodingHex, read.Encoding)

	code, resp = f.do(t, http.MethodPost, "/api/v1/serial/read", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &read))
	assert.Equal(t, service.DefaultReadSize, read.Requested)
	assert.Equal(t, "\r\n", read.Data)
	assert.Equal(t, EncodingText, read.Encoding)

	code, resp = f.do(t, http.MethodPost, "/api/v1/serial/read", ReadRequest{Size: 100000})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &read))
	assert.Equal(t, 4096, read.Requested)
	assert.Equal(t, 0, read.BytesRead)

	code, _ = f.do(t, http.MethodPost, "/api/v1/serial/read", ReadRequest{Encoding: "ebcdic"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSerialHandler_ReadBinaryData(t *testing.T) {
	f := newSerialFixture(t, false)
	f.open(t)

	frame := []byte{0x68, 0x00, 0x9b, 0xff, 0x68}
	f.driver.LastPort().AddReadData(frame)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/read", nil)
	require.Equal(t, http.StatusOK, code)

	var read ReadResponse
	require.NoError(t, json.Unmarshal(resp.Data, &read))
	assert.Equal(t, len(frame), read.BytesRead)
	assert.Equal(t, EncodingBase64, read.Encoding)

	decoded, err := DecodePayload(read.Data, read.Encoding)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)

	f.driver.LastPort().AddReadData(frame)
	code, resp = f.do(t, http.MethodPost, "/api/v1/serial/read", ReadRequest{Encoding: EncodingHex})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &read))
	assert.Equal(t, "68009bff68", read.Data)
	assert.Equal(t, EncodingHex, read.Encoding)
}

func TestSerialHandler_Close(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodPost, "/api/v1/serial/close", nil)
	require.Equal(t, http.StatusOK, code)
	var closed CloseResponse
	require.NoError(t, json.Unmarshal(resp.Data, &closed))
	assert.False(t, closed.WasOpen)

	f.open(t)
	code, resp = f.do(t, http.MethodPost, "/api/v1/serial/close", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &closed))
	assert.True(t, closed.WasOpen)
	assert.True(t, f.driver.LastPort().IsClosed())
}

func TestSerialHandler_JournalDisabled(t *testing.T) {
	f := newSerialFixture(t, false)

	code, resp := f.do(t, http.MethodGet, "/api/v1/serial/journal", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestSerialHandler_JournalFilters(t *testing.T) {
	f := newSerialFixture(t, true)

	code, resp := f.do(t, http.MethodGet, "/api/v1/serial/journal?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(resp.Data))

	code, _ = f.do(t, http.MethodGet, "/api/v1/serial/journal?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/serial/journal?connection_id=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
