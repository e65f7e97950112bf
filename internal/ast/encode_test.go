package ast

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON(t *testing.T) {
	dump := &Dump{
		File:        "test.tbl",
		Fingerprint: "abc123",
		Root:        sampleModule(),
	}
	out, err := EncodeJSON(dump)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "test.tbl", decoded["file"])
	assert.Equal(t, "abc123", decoded["fingerprint"])

	text := string(out)
	assert.Contains(t, text, `"kind": "Module"`)
	assert.Contains(t, text, `"kind": "Const"`)
	// dump header fields come before the tree
	assert.Less(t, strings.Index(text, `"file"`), strings.Index(text, `"root"`))
}

func TestEncodeCBOR(t *testing.T) {
	dump := &Dump{File: "test.tbl", Root: sampleModule()}
	out, err := EncodeCBOR(dump)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	again, err := EncodeCBOR(dump)
	require.NoError(t, err)
	assert.Equal(t, out, again, "canonical encoding must be deterministic")
}
