package ratelimit

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientLimiter keeps one token bucket per client key. Buckets idle for
// longer than the eviction interval are dropped.
type ClientLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets *gocache.Cache
}

func NewClientLimiter(rps float64, burst int, idle time.Duration) *ClientLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &ClientLimiter{
		rps:     limit,
		burst:   burst,
		buckets: gocache.New(idle, idle),
	}
}

func (c *ClientLimiter) Allow(key string) bool {
	return c.bucket(key).Allow()
}

func (c *ClientLimiter) bucket(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.buckets.Get(key); ok {
		c.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(c.rps, c.burst)
	c.buckets.SetDefault(key, l)
	return l
}
