package utils

import (
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem struct {
	Data      string
	ExpiresAt time.Time
}

// RenderCache 渲染结果的本地缓存，只缓存由内容决定的派生数据
type RenderCache struct {
	lruCache *lru.Cache[string, cacheItem]
}

var (
	cacheInstance *RenderCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *RenderCache {
	cacheOnce.Do(func() {
		c, err := NewRenderCache(500)
		if err != nil {
			slog.Error("failed to create LRU cache", "error", err)
			os.Exit(1)
		}
		cacheInstance = c
	})
	return cacheInstance
}

func NewRenderCache(size int) (*RenderCache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &RenderCache{lruCache: l}, nil
}

func (c *RenderCache) Set(key string, data string, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 不存在或已过期时 ok 为 false
func (c *RenderCache) Get(key string) (string, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return "", false
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return "", false
	}
	return val.Data, true
}

// Delete 移除指定 key，不存在时忽略
func (c *RenderCache) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *RenderCache) Len() int {
	return c.lruCache.Len()
}
