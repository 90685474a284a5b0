package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time numeric codes and opaque link tokens.
type Generator interface {
	RandomCode(length int) (string, error)
	RandomLinkToken(length int) (string, error)
}

const linkTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type generator struct{}

func NewGenerator() Generator {
	return &generator{}
}

// RandomCode returns a numeric code of exactly length digits. Leading zeros
// are allowed, so the code is built digit by digit rather than from a single
// random integer.
func (g *generator) RandomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code digit failed: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}

	return string(code), nil
}

func (g *generator) RandomLinkToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid link token length %d", length)
	}

	token := make([]byte, length)
	max := big.NewInt(int64(len(linkTokenAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate link token failed: %w", err)
		}
		token[i] = linkTokenAlphabet[n.Int64()]
	}

	return string(token), nil
}
