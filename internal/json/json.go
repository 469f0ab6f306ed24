// Package json provides the project-wide JSON codec, backed by sonic with an
// encoding/json-compatible surface so call sites stay standard.
package json

import (
	stdjson "encoding/json"
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// RawMessage defers decoding of part of a document.
type RawMessage = stdjson.RawMessage

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }

// Valid reports whether data is well-formed JSON.
func Valid(data []byte) bool { return api.Valid(data) }

// Decoder streams JSON values from a reader.
type Decoder = sonic.Decoder

// Encoder streams JSON values to a writer.
type Encoder = sonic.Encoder

// NewDecoder returns a streaming decoder reading from r.
func NewDecoder(r io.Reader) Decoder { return api.NewDecoder(r) }

// NewEncoder returns a streaming encoder writing to w.
func NewEncoder(w io.Writer) Encoder { return api.NewEncoder(w) }
