package cache

import (
	"strings"
	"time"
)

// New creates a redis-backed cache when an address is configured, otherwise
// a process-local one.
func New(redisAddr string, ttl time.Duration) Cache {
	if strings.TrimSpace(redisAddr) == "" {
		return NewInMemoryCache(ttl)
	}
	return NewRedisCache(redisAddr, ttl)
}
