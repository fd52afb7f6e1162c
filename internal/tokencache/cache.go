// Package tokencache reuses upstream JWTs until shortly before they expire.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oremus-labs/scribe-bridge/internal/metrics"
	"github.com/oremus-labs/scribe-bridge/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies to tokens that carry no exp claim.
const DefaultTTL = 5 * time.Minute

// Fetcher issues a fresh token.
type Fetcher interface {
	FetchToken(ctx context.Context) (string, error)
}

// Options configure the cache.
type Options struct {
	Fetcher Fetcher
	Redis   redis.UniversalClient
	Logger  *log.Logger
	Skew    time.Duration
	Key     string
	Now     func() time.Time
}

// Cache hands out a shared bearer token.
type Cache struct {
	fetcher Fetcher
	redis   redis.UniversalClient
	logger  *log.Logger
	skew    time.Duration
	key     string
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// New creates a token cache.
func New(opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Skew < 0 {
		opts.Skew = 0
	}
	if opts.Key == "" {
		opts.Key = redisx.Key("jwt")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetcher: opts.Fetcher,
		redis:   opts.Redis,
		logger:  opts.Logger,
		skew:    opts.Skew,
		key:     opts.Key,
		now:     opts.Now,
	}
}

// Token returns a cached token or fetches a new one.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expires) {
		metrics.ObserveTokenCache("hit")
		return c.token, nil
	}

	if token, ok := c.shared(ctx, now); ok {
		metrics.ObserveTokenCache("shared")
		return token, nil
	}

	if c.fetcher == nil {
		return "", errors.New("token fetcher not configured")
	}
	metrics.ObserveTokenCache("miss")
	token, err := c.fetcher.FetchToken(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	c.store(ctx, token, now)
	return token, nil
}

// Invalidate forgets the cached token locally and in redis.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.token = ""
	c.expires = time.Time{}
	c.mu.Unlock()
	if c.redis != nil {
		if err := c.redis.Del(ctx, c.key).Err(); err != nil {
			c.logger.Printf("token cache: failed to drop shared token: %v", err)
		}
	}
}

// shared loads a token another replica stored. Caller holds mu.
func (c *Cache) shared(ctx context.Context, now time.Time) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	token, err := c.redis.Get(ctx, c.key).Result()
	if err != nil || token == "" {
		return "", false
	}
	expires := c.usableUntil(token, now)
	if !now.Before(expires) {
		return "", false
	}
	c.token, c.expires = token, expires
	return token, true
}

// store records token locally and in redis. Caller holds mu.
func (c *Cache) store(ctx context.Context, token string, now time.Time) {
	c.token = token
	c.expires = c.usableUntil(token, now)
	if c.redis == nil {
		return
	}
	ttl := c.expires.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := c.redis.Set(ctx, c.key, token, ttl).Err(); err != nil {
		c.logger.Printf("token cache: failed to share token: %v", err)
	}
}

// usableUntil is exp minus skew, or now plus DefaultTTL when there is no exp.
func (c *Cache) usableUntil(token string, now time.Time) time.Time {
	exp, ok := ExpiresAt(token)
	if !ok {
		return now.Add(DefaultTTL)
	}
	return exp.Add(-c.skew)
}

// ExpiresAt reads the exp claim without verifying the signature.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
