package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	cli *redis.Client
}

var _ storage.IdempotencyStore = (*Client)(nil)

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

// NewFromClient оборачивает готовый клиент (тесты, общий пул).
func NewFromClient(cli *redis.Client) *Client {
	return &Client{cli: cli}
}

// Ping для /health.
func (c *Client) Ping(ctx context.Context) error {
	return c.cli.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// Reserve выполняет SET NX EX: первый запрос с ключом выигрывает, повтор читает значение победителя.
func (c *Client) Reserve(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	k := storage.KeyPrefix + key
	ok, err := c.cli.SetNX(ctx, k, value, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if ok {
		return value, true, nil
	}
	existing, err := c.cli.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// ключ истёк между SETNX и GET, пробуем занять ещё раз
		ok, err = c.cli.SetNX(ctx, k, value, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return value, true, nil
		}
		existing, err = c.cli.Get(ctx, k).Result()
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return existing, false, nil
}

func (c *Client) Release(ctx context.Context, key string) error {
	return c.cli.Del(ctx, storage.KeyPrefix+key).Err()
}

// FlushDB очищает текущую БД Redis (для сброса ключей при тестах/перезапуске).
func (c *Client) FlushDB(ctx context.Context) error {
	return c.cli.FlushDB(ctx).Err()
}
