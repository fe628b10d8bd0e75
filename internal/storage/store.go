package storage

import (
	"context"
	"time"
)

// IdempotencyStore: ключи повторной отправки сообщений (Idempotency-Key / clientMessageId).
// Реализации: redis.Client, memory.Client (для -dev и -memory без Redis).
type IdempotencyStore interface {
	// Reserve атомарно занимает key значением value на ttl. Если ключ уже занят,
	// возвращает сохранённое значение и reserved=false.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (existing string, reserved bool, err error)
	// Release освобождает ключ, если отправка не удалась и повтор должен пройти заново.
	Release(ctx context.Context, key string) error
	Close() error
}

// KeyPrefix: пространство имён ключей идемпотентности в общем Redis.
const KeyPrefix = "idem:"
