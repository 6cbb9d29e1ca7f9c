package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		encoding string
		want     []byte
		wantErr  bool
	}{
		{name: "default text", data: "AT\r\n", want: []byte("AT\r\n")},
		{name: "explicit text", data: "hello", encoding: "TEXT", want: []byte("hello")},
		{name: "hex with spaces", data: "1B 40 0a", encoding: EncodingHex, want: []byte{0x1b, 0x40, 0x0a}},
		{name: "base64", data: "QVQNCg==", encoding: EncodingBase64, want: []byte("AT\r\n")},
		{name: "bad hex", data: "xyz", encoding: EncodingHex, wantErr: true},
		{name: "bad base64", data: "!!!", encoding: EncodingBase64, wantErr: true},
		{name: "unknown encoding", data: "x", encoding: "utf16", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(tt.data, tt.encoding)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodePayload(t *testing.T) {
	data := []byte("OK\r\n")

	text, err := EncodePayload(data, "")
	require.NoError(t, err)
	assert.Equal(t, "OK\r\n", text)

	hexText, err := EncodePayload(data, EncodingHex)
	require.NoError(t, err)
	assert.Equal(t, "4f4b0d0a", hexText)

	b64, err := EncodePayload(data, EncodingBase64)
	require.NoError(t, err)
	assert.Equal(t, "T0sNCg==", b64)

	_, err = EncodePayload(data, "rot13")
	assert.Error(t, err)
}

func TestReadEncoding(t *testing.T) {
	binary := []byte{0x68, 0x9b, 0xff}

	assert.Equal(t, EncodingText, ReadEncoding([]byte("OK"), ""))
	assert.Equal(t, EncodingText, ReadEncoding([]byte("OK"), "TEXT"))
	assert.Equal(t, EncodingBase64, ReadEncoding(binary, ""))
	assert.Equal(t, EncodingBase64, ReadEncoding(binary, EncodingText))
	assert.Equal(t, EncodingHex, ReadEncoding(binary, "HEX"))
	assert.Equal(t, EncodingText, ReadEncoding(nil, ""))
}
