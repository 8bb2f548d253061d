package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStringList_ValueAndScanRoundTrip(t *testing.T) {
	l := JSONStringList{"ssh", "build"}
	v, err := l.Value()
	require.NoError(t, err)

	var scanned JSONStringList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, l, scanned)
}

func TestJSONStringList_ValueOnNilProducesEmptyArray(t *testing.T) {
	var l JSONStringList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestJSONStringList_ScanNilClearsList(t *testing.T) {
	l := JSONStringList{"ssh"}
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
}

func TestJSONStringList_ScanRejectsUnsupportedType(t *testing.T) {
	var l JSONStringList
	err := l.Scan(42)
	assert.Error(t, err)
}

func TestJSONStringList_Contains(t *testing.T) {
	l := JSONStringList{"ssh", "build"}
	assert.True(t, l.Contains("ssh"))
	assert.False(t, l.Contains("docker"))
}

func TestRunner_HasCapability(t *testing.T) {
	r := Runner{Capabilities: JSONStringList{"ssh"}}
	assert.True(t, r.HasCapability("ssh"))
	assert.False(t, r.HasCapability("build"))
}
