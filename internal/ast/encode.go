package ast

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Dump holds the serialized form of a parse, with enough metadata to pin the
// tree to the exact input it came from.
type Dump struct {
	File        string  `json:"file"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Root        *Module `json:"root"`
}

// EncodeJSON serializes a dump as indented JSON. Ordered mappings keep their
// insertion order.
func EncodeJSON(d *Dump) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// EncodeCBOR serializes a dump in CBOR (canonical encoding, RFC 7049 §3.9).
func EncodeCBOR(d *Dump) ([]byte, error) {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(d)
}
