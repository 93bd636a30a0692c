package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/user-service/internal/domain"
)

// ErrMiss is returned when no profile is cached for an email.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "user:profile:"

// UserCache stores user profiles in Redis keyed by email.
// Password hashes are never cached.
type UserCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewUserCache builds a cache. A non-positive ttl disables caching.
func NewUserCache(client redis.Cmdable, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

// Get returns the cached profile for email or ErrMiss.
func (c *UserCache) Get(ctx context.Context, email string) (*domain.User, error) {
	if c.disabled() {
		return nil, ErrMiss
	}
	raw, err := c.client.Get(ctx, key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &user, nil
}

// Set caches the profile of user.
func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	if c.disabled() || user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, key(user.Email), raw, c.ttl).Err()
}

// Delete drops cached profiles for the given emails.
func (c *UserCache) Delete(ctx context.Context, emails ...string) error {
	if c.disabled() || len(emails) == 0 {
		return nil
	}
	keys := make([]string, 0, len(emails))
	for _, email := range emails {
		keys = append(keys, key(email))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *UserCache) disabled() bool {
	return c == nil || c.client == nil || c.ttl <= 0
}

func key(email string) string {
	return keyPrefix + email
}
