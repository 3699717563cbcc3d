package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheConfig is the Redis endpoint for the JSON cache.
type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c CacheConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// CacheService stores JSON values in Redis. A missing key is not an error:
// Get leaves dest untouched and returns nil.
type CacheService struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCacheServiceWithClient(rdb, logger), nil
}

// NewCacheServiceWithClient wraps an existing client; tests pass a miniredis-backed one.
func NewCacheServiceWithClient(rdb *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{rdb: rdb, logger: logger}
}

// Client exposes the underlying connection for components that need WATCH.
func (c *CacheService) Client() *redis.Client { return c.rdb }

func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache_decode_error", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// ParseRedisURL converts redis://[:password@]host[:port][/db] into a CacheConfig.
func ParseRedisURL(raw string) (*CacheConfig, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	port := 6379
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return nil, err
		}
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &CacheConfig{Host: u.Hostname(), Port: port, Password: pass, DB: db}, nil
}
