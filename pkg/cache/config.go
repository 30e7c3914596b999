package cache

import "time"

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryConfig)

// WithMemoryMaxSize sets maximum number of entries before LRU eviction.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(c *MemoryConfig) {
		if n > 0 {
			c.MaxSize = n
		}
	}
}

// WithCleanupInterval sets the expired-entry sweep interval.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if d > 0 {
			c.CleanupInterval = d
		}
	}
}

// RedisConfig holds redis cache configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisOption configures RedisCache.
type RedisOption func(*RedisConfig)

// WithRedisAddr sets the redis address.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisAuth sets password and database.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// LayeredConfig holds layered cache configuration.
type LayeredConfig struct {
	MemoryMaxSize int
}

// LayeredOption configures LayeredCache.
type LayeredOption func(*LayeredConfig)

// WithLayeredMemorySize sets the L1 size.
func WithLayeredMemorySize(n int) LayeredOption {
	return func(c *LayeredConfig) {
		if n > 0 {
			c.MemoryMaxSize = n
		}
	}
}
