package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/cache"
	"github.com/reusedev/doc-hub/internal/modules/storage/ali"
	"github.com/reusedev/doc-hub/internal/modules/storage/local"
)

type Storage interface {
	Name() string
	Upload(name string, r io.Reader) (key string, err error)
	UploadImage(b []byte) (key string, err error)
	URL(key string, expire time.Duration) (string, error)
	Download(key string) ([]byte, error)
	Delete(key string) error
}

var defaultStorage Storage

func Init(c *config.Config) error {
	switch c.StorageSupplier {
	case ali.SupplierName:
		defaultStorage = ali.NewOSS(c.AliOss)
	case local.SupplierName:
		d, err := local.NewDisk(c.LocalStorage)
		if err != nil {
			return err
		}
		defaultStorage = d
	default:
		return fmt.Errorf("unknown storage supplier %s", c.StorageSupplier)
	}
	return nil
}

func Default() Storage {
	return defaultStorage
}

// SetDefault replaces the selected storage, used by tests.
func SetDefault(s Storage) {
	defaultStorage = s
}

// SignedURL returns a URL for key, reusing a cached one while it is still
// valid for at least half of expire.
func SignedURL(key string, expire time.Duration) (string, error) {
	cacheKey := urlCacheKey(defaultStorage, key)
	u, err := cache.URLCacheManager().GetValue(cacheKey)
	if err == nil && u != "" {
		return u, nil
	}
	u, err = defaultStorage.URL(key, expire)
	if err != nil {
		return "", err
	}
	_ = cache.URLCacheManager().SetWithExpiration(cacheKey, u, min(expire/2, 5*time.Minute))
	return u, nil
}

// Remove deletes key from s and forgets any URL signed for it.
func Remove(s Storage, key string) error {
	if err := s.Delete(key); err != nil {
		return err
	}
	return cache.URLCacheManager().Delete(urlCacheKey(s, key))
}

func urlCacheKey(s Storage, key string) string {
	return s.Name() + ":" + key
}
