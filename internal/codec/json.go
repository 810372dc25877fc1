package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec persists bank documents as indented JSON.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier.
func (c *JSONCodec) Format() string {
	return "json"
}

// Extension returns the file name extension.
func (c *JSONCodec) Extension() string {
	return ".json"
}

// Encode writes one bank document as JSON.
func (c *JSONCodec) Encode(w io.Writer, doc any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Decode reads one bank document from JSON.
func (c *JSONCodec) Decode(r io.Reader, doc any) error {
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
