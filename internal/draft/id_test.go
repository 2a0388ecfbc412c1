package draft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLocalID(t *testing.T) {
	a := NewLocalID()
	b := NewLocalID()

	require.True(t, a.IsLocal())
	require.False(t, a.IsZero())
	require.NotEqual(t, a, b)

	_, ok := a.Server()
	require.False(t, ok)
	require.Contains(t, a.String(), "temp_")
}

func TestPersistedID(t *testing.T) {
	id := PersistedID(42)

	require.False(t, id.IsLocal())
	n, ok := id.Server()
	require.True(t, ok)
	require.Equal(t, int64(42), n)
	require.Equal(t, "42", id.String())
}

func TestParseID(t *testing.T) {
	require.Equal(t, PersistedID(101), ParseID("101"))

	local := ParseID("temp_1712_ab34cd56")
	require.True(t, local.IsLocal())
	require.Equal(t, "temp_1712_ab34cd56", local.String())

	// Non-numeric garbage stays local so it can never alias a real row.
	odd := ParseID("abc")
	require.True(t, odd.IsLocal())
}

func TestIDJSONRoundTrip(t *testing.T) {
	for _, id := range []ID{PersistedID(7), ParseID("temp_x_y")} {
		data, err := json.Marshal(id)
		require.NoError(t, err)

		var decoded ID
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, id, decoded)
	}

	// Servers occasionally encode IDs as bare numbers.
	var decoded ID
	require.NoError(t, json.Unmarshal([]byte(`33`), &decoded))
	require.Equal(t, PersistedID(33), decoded)
}
