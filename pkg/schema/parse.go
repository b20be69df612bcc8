package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quire/pkg/domain"
)

// Format is the encoding of a description file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported description format: %s", filepath.Ext(path))
	}
}

// Parse decodes a description. Unknown fields are rejected.
func Parse(data []byte, format Format) (domain.Element, error) {
	var el domain.Element
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&el); err != nil {
			return domain.Element{}, fmt.Errorf("failed to parse YAML description: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&el); err != nil {
			return domain.Element{}, fmt.Errorf("failed to parse JSON description: %w", err)
		}
	default:
		return domain.Element{}, fmt.Errorf("unsupported description format: %q", format)
	}
	return el, nil
}

// ParseFile reads and decodes a description file, choosing the format by extension.
func ParseFile(path string) (domain.Element, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domain.Element{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to read description: %w", err)
	}
	return Parse(data, format)
}
