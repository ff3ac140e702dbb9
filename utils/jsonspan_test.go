package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFirstJSON_SkipsInvalidCandidates(t *testing.T) {
	v, ok := DecodeFirstJSON(`note [see below: {"a": "b]"}] trailing`)
	require.True(t, ok)
	obj, isObj := v.(map[string]interface{})
	require.True(t, isObj)
	assert.Equal(t, "b]", obj["a"])

	_, ok = DecodeFirstJSON("{unclosed")
	assert.False(t, ok)
}
