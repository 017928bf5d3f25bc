package surrogate

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for serialization formats without a codec.
var ErrUnsupportedFormat = errors.New("unsupported surrogate format")

// ToXML encodes the asset as an indented XML document.
func ToXML(asset *KnowledgeAsset) ([]byte, error) {
	data, err := xml.MarshalIndent(asset, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal surrogate xml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// FromXML decodes an XML surrogate document.
func FromXML(data []byte) (*KnowledgeAsset, error) {
	var asset KnowledgeAsset
	if err := xml.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse surrogate xml: %w", err)
	}
	return &asset, nil
}

// ToJSON encodes the asset as indented JSON.
func ToJSON(asset *KnowledgeAsset) ([]byte, error) {
	data, err := json.MarshalIndent(asset, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal surrogate json: %w", err)
	}
	return data, nil
}

// FromJSON decodes a JSON surrogate. Unknown fields are rejected.
func FromJSON(data []byte) (*KnowledgeAsset, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var asset KnowledgeAsset
	if err := decoder.Decode(&asset); err != nil {
		return nil, fmt.Errorf("failed to parse surrogate json: %w", err)
	}
	return &asset, nil
}

// ToYAML encodes the asset as YAML.
func ToYAML(asset *KnowledgeAsset) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(asset); err != nil {
		return nil, fmt.Errorf("failed to marshal surrogate yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal surrogate yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FromYAML decodes a YAML surrogate.
func FromYAML(data []byte) (*KnowledgeAsset, error) {
	var asset KnowledgeAsset
	if err := yaml.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse surrogate yaml: %w", err)
	}
	return &asset, nil
}

// Encode serializes the asset in the format with the given tag.
func Encode(asset *KnowledgeAsset, format string) ([]byte, error) {
	switch format {
	case XMLFormat, "":
		return ToXML(asset)
	case JSONFormat:
		return ToJSON(asset)
	case YAMLFormat:
		return ToYAML(asset)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Decode parses a surrogate in the format with the given tag.
func Decode(data []byte, format string) (*KnowledgeAsset, error) {
	switch format {
	case XMLFormat, "":
		return FromXML(data)
	case JSONFormat:
		return FromJSON(data)
	case YAMLFormat:
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
