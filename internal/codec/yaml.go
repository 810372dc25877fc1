package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec persists bank documents as YAML. Map keys come out sorted, so
// saved files diff cleanly between runs.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier.
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Extension returns the file name extension.
func (c *YAMLCodec) Extension() string {
	return ".yaml"
}

// Encode writes one bank document as YAML.
func (c *YAMLCodec) Encode(w io.Writer, doc any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// Decode reads one bank document from YAML.
func (c *YAMLCodec) Decode(r io.Reader, doc any) error {
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}
