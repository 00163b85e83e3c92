package cache

import (
	"context"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
)

type Manager[T any] struct {
	cache *cache.Cache[T]
}

var (
	answerCacheManager *Manager[string]
	urlCacheManager    *Manager[string]
)

func init() {
	answerCacheManager = NewManager[string](10 * time.Minute)
	urlCacheManager = NewManager[string](5 * time.Minute)
}

func NewManager[T any](ttl time.Duration) *Manager[T] {
	client := gocache.New(ttl, ttl)
	return &Manager[T]{
		cache: cache.New[T](go_cache.NewGoCache(client, store.WithExpiration(ttl))),
	}
}

// AnswerCacheManager holds model answers keyed by analysis fingerprint.
func AnswerCacheManager() *Manager[string] {
	return answerCacheManager
}

// URLCacheManager holds signed storage URLs.
func URLCacheManager() *Manager[string] {
	return urlCacheManager
}

func (m *Manager[T]) Set(key string, value T) error {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return m.cache.Set(timeout, key, value)
}

func (m *Manager[T]) SetWithExpiration(key string, value T, expir time.Duration) error {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return m.cache.Set(timeout, key, value, store.WithExpiration(expir))
}

// GetValue returns the zero value and a nil error on a miss.
func (m *Manager[T]) GetValue(key string) (value T, err error) {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	const errorMessage = "value not found"
	value, err = m.cache.Get(timeout, key)
	if err != nil && strings.Contains(err.Error(), errorMessage) {
		err = nil
		return
	}
	return
}

func (m *Manager[T]) Delete(key string) error {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return m.cache.Delete(timeout, key)
}
