// internal/handler/payload.go
package handler

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Payload encodings accepted on write and offered on read
const (
	EncodingText   = "text"
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// DecodePayload turns request data into the bytes to transmit
func DecodePayload(data, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingText:
		return []byte(data), nil
	case EncodingHex:
		decoded, err := hex.DecodeString(strings.ReplaceAll(data, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return decoded, nil
	case EncodingBase64:
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// EncodePayload renders received bytes for a response
func EncodePayload(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingText:
		return string(data), nil
	case EncodingHex:
		return hex.EncodeToString(data), nil
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// ReadEncoding picks the encoding for received bytes. Text that is not valid
// UTF-8 is sent as base64 so no byte is replaced in the JSON response.
func ReadEncoding(data []byte, requested string) string {
	encoding := strings.ToLower(requested)
	if encoding == "" {
		encoding = EncodingText
	}
	if encoding == EncodingText && !utf8.Valid(data) {
		return EncodingBase64
	}
	return encoding
}
