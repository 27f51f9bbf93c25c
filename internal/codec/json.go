package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"spheremap/internal/domain"
	"spheremap/internal/normalize"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports map data from JSON
func (c *JSONCodec) Parse(r io.Reader) (*normalize.RawPayload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	raw, err := normalize.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return raw, nil
}

// Export exports map data to JSON
func (c *JSONCodec) Export(m *domain.Map, w io.Writer) error {
	if m == nil {
		m = domain.NewMap(0)
	}
	return c.EncodeDocument(m, w)
}

// EncodeDocument writes doc as indented JSON
func (c *JSONCodec) EncodeDocument(doc any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
