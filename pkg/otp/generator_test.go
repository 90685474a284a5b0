package otp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomCodeLengthAndDigits(t *testing.T) {
	gen := NewGenerator()

	for _, length := range []int{4, 6, 8} {
		code, err := gen.RandomCode(length)
		require.NoError(t, err)
		require.Len(t, code, length)

		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "unexpected rune %q in code %q", r, code)
		}
	}
}

func TestRandomCodeInvalidLength(t *testing.T) {
	gen := NewGenerator()

	_, err := gen.RandomCode(0)
	require.Error(t, err)

	_, err = gen.RandomCode(-1)
	require.Error(t, err)
}

func TestRandomLinkToken(t *testing.T) {
	gen := NewGenerator()

	token, err := gen.RandomLinkToken(50)
	require.NoError(t, err)
	require.Len(t, token, 50)

	for _, r := range token {
		require.True(t, strings.ContainsRune(linkTokenAlphabet, r),
			"unexpected rune %q in token", r)
	}

	other, err := gen.RandomLinkToken(50)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestRandomLinkTokenInvalidLength(t *testing.T) {
	gen := NewGenerator()

	_, err := gen.RandomLinkToken(0)
	require.Error(t, err)
}
