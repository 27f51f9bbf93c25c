package codec

import (
	"fmt"
	"io"

	"spheremap/internal/domain"
	"spheremap/internal/normalize"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports map data from YAML. Records go through the same alias
// table as JSON, so hand-written files may use any accepted field name.
func (c *YAMLCodec) Parse(r io.Reader) (*normalize.RawPayload, error) {
	var top map[string]any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&top); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("failed to parse YAML: document is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if top == nil {
		return nil, fmt.Errorf("failed to parse YAML: document is not a mapping")
	}
	return normalize.FromRecord(top), nil
}

// Export exports map data to YAML
func (c *YAMLCodec) Export(m *domain.Map, w io.Writer) error {
	if m == nil {
		m = domain.NewMap(0)
	}
	return c.EncodeDocument(m, w)
}

// EncodeDocument writes doc as YAML
func (c *YAMLCodec) EncodeDocument(doc any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
