package ast

import (
	"bytes"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// OrderedMap is a string-keyed mapping that iterates in insertion order.
// Module scopes, function parameters, and named arguments all need
// deterministic iteration for reproducible diagnostics and output.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{vals: make(map[string]V)}
}

// Put inserts key -> val. Returns false without overwriting when the key is
// already present.
func (m *OrderedMap[V]) Put(key string, val V) bool {
	if _, dup := m.vals[key]; dup {
		return false
	}
	m.keys = append(m.keys, key)
	m.vals[key] = val
	return true
}

// Get looks a key up.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether the key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is shared; do not
// mutate it.
func (m *OrderedMap[V]) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// At returns the i-th entry in insertion order.
func (m *OrderedMap[V]) At(i int) (string, V) {
	k := m.keys[i]
	return k, m.vals[k]
}

// MarshalJSON writes the entries as an object in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type orderedPair[V any] struct {
	Key string `cbor:"1,keyasint"`
	Val V      `cbor:"2,keyasint"`
}

// MarshalCBOR writes the entries as an array of pairs, preserving order.
func (m *OrderedMap[V]) MarshalCBOR() ([]byte, error) {
	pairs := make([]orderedPair[V], len(m.keys))
	for i, k := range m.keys {
		pairs[i] = orderedPair[V]{Key: k, Val: m.vals[k]}
	}
	return cbor.Marshal(pairs)
}
