package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eduhub/internal/storage"
)

type item struct {
	val string
	exp time.Time
}

// Client хранит ключи идемпотентности в памяти процесса (для -dev и -memory без Redis).
type Client struct {
	mu   sync.Mutex
	keys map[string]item
	now  func() time.Time
}

var _ storage.IdempotencyStore = (*Client)(nil)

func New() *Client {
	return &Client{keys: make(map[string]item), now: time.Now}
}

// NewWithClock: для тестов с управляемым временем.
func NewWithClock(now func() time.Time) *Client {
	c := New()
	c.now = now
	return c
}

func (c *Client) Close() error { return nil }

func (c *Client) Reserve(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if v, ok := c.keys[key]; ok && now.Before(v.exp) {
		return v.val, false, nil
	}
	c.keys[key] = item{val: value, exp: now.Add(ttl)}
	c.sweep(now)
	return value, true, nil
}

func (c *Client) Release(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

// sweep удаляет истёкшие ключи; вызывается под mu.
func (c *Client) sweep(now time.Time) {
	for k, v := range c.keys {
		if !now.Before(v.exp) {
			delete(c.keys, k)
		}
	}
}
