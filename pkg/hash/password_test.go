package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher, err := NewBcryptHasher(4)
	require.NoError(t, err)

	hashed, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hashed)

	require.True(t, hasher.Compare(hashed, "s3cret-password"))
	require.False(t, hasher.Compare(hashed, "wrong-password"))
}

func TestBcryptHasherUniqueSalts(t *testing.T) {
	hasher, err := NewBcryptHasher(4)
	require.NoError(t, err)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestNewBcryptHasherInvalidCost(t *testing.T) {
	_, err := NewBcryptHasher(0)
	require.Error(t, err)

	_, err = NewBcryptHasher(100)
	require.Error(t, err)
}
