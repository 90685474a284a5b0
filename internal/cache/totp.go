package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrKeyNotFound = errors.New("key not found")

// TOTPSetupCache holds authenticator secrets between setup and first
// successful verification. A secret that is never confirmed simply expires.
type TOTPSetupCache interface {
	Set(ctx context.Context, userID uuid.UUID, secret string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type totpSetupCache struct {
	client redis.UniversalClient
}

func NewTOTPSetupCache(client redis.UniversalClient) TOTPSetupCache {
	return &totpSetupCache{
		client: client,
	}
}

func totpSetupKey(userID uuid.UUID) string {
	return "totp_setup:" + userID.String()
}

func (c *totpSetupCache) Set(ctx context.Context, userID uuid.UUID, secret string, ttl time.Duration) error {
	if err := c.client.Set(ctx, totpSetupKey(userID), secret, ttl).Err(); err != nil {
		return fmt.Errorf("set totp setup secret failed: %w", err)
	}

	return nil
}

func (c *totpSetupCache) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	secret, err := c.client.Get(ctx, totpSetupKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("get totp setup secret failed: %w", err)
	}

	return secret, nil
}

func (c *totpSetupCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, totpSetupKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete totp setup secret failed: %w", err)
	}

	return nil
}
