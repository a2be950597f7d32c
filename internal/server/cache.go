package server

import (
	"sync"
	"time"
)

// Cache keeps the current response of each source plus a backup of the last
// successful one. Expiry is measured with the cache clock only.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	data   *Response
	backup *Response
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheItem), now: time.Now}
}

// Get cached response if valid
func (c *Cache) Get(key string) *Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.data == nil || c.now().After(item.data.ExpiresAt) {
		return nil
	}
	return item.data
}

// Get backup response for degraded mode
func (c *Cache) GetBackup(key string) *Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.backup == nil || c.now().After(item.backup.ExpiresAt) {
		return nil
	}
	return item.backup
}

// Store response for its TTL and keep a backup of it for degradedTTL if
// successful
func (c *Cache) Set(key string, resp *Response, degradedTTL time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if resp.Timestamp == "" {
		resp.Timestamp = now.UTC().Format(time.RFC3339)
	}
	resp.ExpiresAt = now.Add(resp.TTL)

	item := c.items[key]
	item.data = resp
	if resp.Error == "" {
		item.backup = BackupResponse(resp, now.Add(degradedTTL))
	}
	c.items[key] = item
}
