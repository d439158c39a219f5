package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]Record{
		{{"Groceries", "milk, eggs"}},
		{{"a", "b"}, {"c", "d"}, {"e", "f"}},
		{{"Standup", "", "daily sync", "Monday", "Monday", "Work", "UID-1"}},
		{{"Alice", "+1 555 0100", "+1 555 0101"}, {"Bob", "+44 20 7946 0000"}},
	}
	for _, records := range cases {
		blob := Default.Encode(records)
		got, err := Default.Decode(blob)
		require.NoError(t, err)
		assert.Equal(t, records, got, "blob %q", blob)
	}
}

func TestDecode_EmptyBlob(t *testing.T) {
	got, err := Default.Decode("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_DropsChunksWithoutFieldSep(t *testing.T) {
	got, err := Default.Decode("a|b;garbage;;c|d;")
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a", "b"}, {"c", "d"}}, got)
}

func TestDecode_ErrorPrefix(t *testing.T) {
	got, err := Default.Decode("Error: Notes got an error: Can't get account 1.")
	assert.Empty(t, got)

	var se *ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Notes got an error: Can't get account 1.", se.Message)
}

func TestDecode_ErrorChunkShortCircuits(t *testing.T) {
	got, err := Default.Decode("a|b;Error: boom; tail")
	assert.Nil(t, got)

	var se *ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "boom; tail", se.Message)
}

func TestDecodeN_DropsShortRecords(t *testing.T) {
	got, err := Default.DecodeN("me|hi|Monday;you|short;them|a|b|c", 3)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"me", "hi", "Monday"},
		{"them", "a", "b|c"},
	}, got)
}

func TestCustomSeparators(t *testing.T) {
	c := Codec{FieldSep: "\x1f", RecordSep: "\x1e"}
	records := []Record{{"a|b", "c;d"}}
	got, err := c.Decode(c.Encode(records))
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestRecordField(t *testing.T) {
	r := Record{"x", "y"}
	assert.Equal(t, "y", r.Field(1))
	assert.Equal(t, "", r.Field(5))
	assert.Equal(t, "", r.Field(-1))
}
