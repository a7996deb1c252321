package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAddressDeterministic(t *testing.T) {
	seed := []byte("beneficiary-holding")

	a := NewAddress("test: context", seed)
	b := NewAddress("test: context", seed)
	require.Equal(t, a, b, "same context and seeds must derive the same address")

	c := NewAddress("test: other context", seed)
	require.NotEqual(t, a, c, "different contexts must derive different addresses")

	d := NewAddress("test: context", []byte("other-seed"))
	require.NotEqual(t, a, d, "different seeds must derive different addresses")
}

func TestAddressTextRoundTrip(t *testing.T) {
	a := NewAddress("test: context", []byte("seed"))

	text, err := a.MarshalText()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	require.Equal(t, a, decoded)

	parsed, err := AddressFromHex(a.String())
	require.NoError(t, err)
	require.Equal(t, a, parsed)
}

func TestAddressFromHexRejectsMalformed(t *testing.T) {
	_, err := AddressFromHex("not-hex")
	require.Error(t, err)

	// Wrong length.
	_, err = AddressFromHex("abcdef")
	require.Error(t, err)
}

func TestAddressIsZero(t *testing.T) {
	var zero Address
	require.True(t, zero.IsZero())
	require.False(t, NewAddress("test: context").IsZero())
}
