package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIdU128RoundTrip(t *testing.T) {
	c := NewClientId()
	got := ClientIdFromU128(c.U128())
	require.Equal(t, c, got)
}

func TestServerIdU128RoundTrip(t *testing.T) {
	s := NewServerId()
	got := ServerIdFromU128(s.U128())
	require.Equal(t, s, got)
}

func TestServerIdFromStringRoundTrip(t *testing.T) {
	s := NewServerId()
	got, err := ServerIdFromString(s.String())
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestClientIdLessIsTotalOrder(t *testing.T) {
	a := ClientIdFromBytes([16]byte{0, 0, 0, 1})
	b := ClientIdFromBytes([16]byte{0, 0, 0, 2})

	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}
