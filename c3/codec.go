package c3

import (
	"encoding/json"
	"io"
)

// Serialize encodes a message to JSON bytes.
func Serialize[T any](msg *T) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode decodes a JSON message from a reader.
func Decode[T any](reader io.Reader) (*T, error) {
	var msg T
	err := json.NewDecoder(reader).Decode(&msg)
	return &msg, err
}

// DecodeBytes decodes a JSON message from a byte slice.
func DecodeBytes[T any](data []byte) (*T, error) {
	var msg T
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
