package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"produtos-api/internal/pkg/clock"
)

const cleanupInterval = 5 * time.Minute

type item struct {
	value     any
	expiresAt time.Time
}

// Cache es un caché en memoria con TTL, seguro para uso concurrente
type Cache struct {
	items map[string]item
	mu    sync.RWMutex
	ttl   time.Duration
	clock clock.Clock
}

// New crea un caché con el TTL por defecto dado
func New(defaultTTL time.Duration, clk clock.Clock) *Cache {
	return &Cache{
		items: make(map[string]item),
		ttl:   defaultTTL,
		clock: clk,
	}
}

// Set guarda un valor en caché
func (c *Cache) Set(key string, value any, ttl ...time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	duration := c.ttl
	if len(ttl) > 0 {
		duration = ttl[0]
	}

	c.items[key] = item{
		value:     value,
		expiresAt: c.clock.Now().Add(duration),
	}
}

// Get obtiene un valor del caché
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || c.clock.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

// Delete elimina un valor del caché
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteByPrefix elimina todas las claves que empiecen con un prefijo
func (c *Cache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Clear limpia todo el caché
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}

// Size retorna el número de items en caché, incluidos los expirados aún no purgados
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartCleanup purga los items expirados periódicamente hasta que ctx se cancele
func (c *Cache) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.purgeExpired()
			}
		}
	}()
}

func (c *Cache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
		}
	}
}
