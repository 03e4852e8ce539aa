package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileID_JSONRoundTrip(t *testing.T) {
	id := NewProfileID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded ProfileID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestProfileID_SQLRoundTrip(t *testing.T) {
	id := NewProfileID()

	v, err := id.Value()
	require.NoError(t, err)

	var scanned ProfileID
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, id, scanned)
}

func TestParseProfileID_RoundTrip(t *testing.T) {
	id := NewProfileID()

	parsed, err := ParseProfileID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseEmployeeID("not-a-uuid")
	assert.Error(t, err)
}
