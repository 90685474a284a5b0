package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/joblo-ai/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenType = "refresh"

var (
	ErrTokenExpired   = errors.New("token is expired")
	ErrInvalidToken   = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims carried by both access and refresh tokens. TokenVersion is compared
// against the user record on every authenticated request, which is how
// sign-out-everywhere invalidates outstanding tokens without a revocation
// list. Type distinguishes refresh tokens from access tokens.
type Claims struct {
	TokenVersion int    `json:"tokenVersion"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Type         string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenManager provides logic for RS256 access & refresh token generation
// and parsing. Signing needs the decrypted private key; parsing uses the
// public key only.
type TokenManager interface {
	NewAccessToken(userID uuid.UUID, tokenVersion int, email string, role string) (string, time.Duration, error)
	NewRefreshToken(userID uuid.UUID, tokenVersion int) (string, time.Duration, error)
	ParseAccessToken(token string) (*Claims, error)
	ParseRefreshToken(token string) (*Claims, error)
}

type Manager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.AccessTokenTTL == 0 {
		return nil, errors.New("empty access token ttl")
	}

	if cfg.RefreshTokenTTL == 0 {
		return nil, errors.New("empty refresh token ttl")
	}

	privateKey, publicKey, err := LoadKeys(cfg.KeyDir, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("load signing keys failed: %w", err)
	}

	return &Manager{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (m *Manager) NewAccessToken(userID uuid.UUID, tokenVersion int, email string, role string) (string, time.Duration, error) {
	claims := Claims{
		TokenVersion: tokenVersion,
		Email:        email,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.accessTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token failed: %w", err)
	}

	return token, m.accessTokenTTL, nil
}

func (m *Manager) NewRefreshToken(userID uuid.UUID, tokenVersion int) (string, time.Duration, error) {
	claims := Claims{
		TokenVersion: tokenVersion,
		Type:         refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.refreshTokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
	if err != nil {
		return "", 0, fmt.Errorf("sign refresh token failed: %w", err)
	}

	return token, m.refreshTokenTTL, nil
}

// ParseAccessToken verifies signature and expiry and rejects refresh tokens,
// so a long-lived refresh token can never be replayed as an access token.
func (m *Manager) ParseAccessToken(token string) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	if claims.Type == refreshTokenType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (m *Manager) ParseRefreshToken(token string) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != refreshTokenType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return m.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
