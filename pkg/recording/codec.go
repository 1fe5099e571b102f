package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a fixture format other than json or yaml.
var ErrUnknownFormat = errors.New("unknown fixture format")

// Format names a fixture serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Codec serializes fixtures.
type Codec interface {
	// Ext is the file extension, including the dot.
	Ext() string
	Marshal(f *Fixture) ([]byte, error)
	Unmarshal(data []byte) (*Fixture, error)
}

// JSONCodec writes indented JSON fixtures.
type JSONCodec struct{}

func (JSONCodec) Ext() string { return ".json" }

func (JSONCodec) Marshal(f *Fixture) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to marshal fixture: %w", err)
	}
	return buf.Bytes(), nil
}

func (JSONCodec) Unmarshal(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// YAMLCodec writes YAML fixtures.
type YAMLCodec struct{}

func (YAMLCodec) Ext() string { return ".yaml" }

func (YAMLCodec) Marshal(f *Fixture) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to marshal fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal fixture: %w", err)
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Unmarshal(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Codecs returns every supported codec, JSON first.
func Codecs() []Codec {
	return []Codec{JSONCodec{}, YAMLCodec{}}
}

// CodecFor returns the codec for a format name. An empty name selects JSON.
func CodecFor(format Format) (Codec, error) {
	switch Format(strings.ToLower(string(format))) {
	case "", FormatJSON:
		return JSONCodec{}, nil
	case FormatYAML, "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// CodecForPath picks a codec by file extension.
func CodecForPath(path string) (Codec, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return JSONCodec{}, true
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return YAMLCodec{}, true
	default:
		return nil, false
	}
}

// searchOrder returns preferred first, followed by the other codecs.
func searchOrder(preferred Codec) []Codec {
	out := []Codec{preferred}
	for _, c := range Codecs() {
		if c.Ext() != preferred.Ext() {
			out = append(out, c)
		}
	}
	return out
}
