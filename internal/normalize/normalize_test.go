package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	require.Equal(t, 0.0, Number(nil))

	nan := math.NaN()
	require.Equal(t, 0.0, Number(&nan))

	inf := math.Inf(1)
	require.Equal(t, 0.0, Number(&inf))

	v := 1234.56
	require.Equal(t, 1234.56, Number(&v))

	neg := -0.5
	require.Equal(t, -0.5, Number(&neg))
}

func TestString(t *testing.T) {
	require.Equal(t, "", String(nil))

	v := "  padded  "
	require.Equal(t, "  padded  ", String(&v))
	require.Equal(t, "padded", TrimmedString(&v))
}

func TestBoolean(t *testing.T) {
	require.False(t, Boolean(nil))

	v := true
	require.True(t, Boolean(&v))
}

func TestDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain date", "2024-03-05", "2024-03-05"},
		{"iso timestamp", "2024-03-05T10:30:00Z", "2024-03-05"},
		{"iso timestamp with offset", "2024-03-05T10:30:00+09:00", "2024-03-05"},
		{"sql datetime", "2024-03-05 10:30:00", "2024-03-05"},
		{"garbage", "not-a-date", ""},
		{"garbage before separator", "soonTlater", ""},
		{"impossible calendar date", "2024-13-40", ""},
		{"unpadded date", "2024-3-5", ""},
		{"trailing junk", "2024-03-05junk", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Date(tc.in))
		})
	}
}

func TestDateIdempotent(t *testing.T) {
	inputs := []string{"", "2024-03-05", "2024-03-05T10:30:00Z", "2024-03-05 10:30:00", "junk", "2024-13-40"}
	for _, in := range inputs {
		once := Date(in)
		require.Equal(t, once, Date(once), "input %q", in)
	}
}

func TestDatePtr(t *testing.T) {
	require.Equal(t, "", DatePtr(nil))

	v := "2024-03-05T00:00:00Z"
	require.Equal(t, "2024-03-05", DatePtr(&v))
}

func TestWireDate(t *testing.T) {
	require.Nil(t, WireDate(""))
	require.Nil(t, WireDate("garbage"))

	out := WireDate("2024-03-05")
	require.NotNil(t, out)
	require.Equal(t, "2024-03-05", *out)

	// Round trip: a date survives, an absent date stays NULL on the wire.
	require.Nil(t, WireDate(Date("")))
	require.Equal(t, "2024-03-05", *WireDate(Date("2024-03-05 11:00:00")))
}
