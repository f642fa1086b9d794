package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker даёт эксклюзивное право на проход диспетчера между экземплярами сервиса
type Locker interface {
	// Acquire возвращает ok=false, если блокировка занята другим экземпляром
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type redisLocker struct {
	client *redislock.Client
}

// NewRedisLocker создаёт блокировку поверх Redis
func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{client: redislock.New(rdb)}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, true, nil
}

// LocalLocker - блокировка для единственного экземпляра, когда Redis не настроен.
// Строки событий всё равно захватываются через SKIP LOCKED.
type LocalLocker struct{}

func (LocalLocker) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
