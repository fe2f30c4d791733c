package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tourbook/infras/otel"
	"tourbook/shared/constant"
)

const (
	otelLockKeyAttribute = "lock.key"

	maxAttempts  = 5
	retryBackoff = 100 * time.Millisecond
)

// ErrNotAcquired is returned when the lock is held by another owner
// and all acquisition attempts have been exhausted.
var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the lock only when the stored token matches,
// so a lock that expired and was re-acquired by someone else is never
// released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type lockerImpl struct {
	client *redis.Client
	otel   otel.Otel
}

func NewLocker(client *redis.Client, ot otel.Otel) Locker {
	return &lockerImpl{
		client: client,
		otel:   ot,
	}
}

// Acquire implements Locker. The returned token identifies the holder
// and is required to release the lock.
func (l *lockerImpl) Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Acquire")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelLockKeyAttribute, key)

	token = uuid.NewString()

	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("Locker", "Acquire").Msg("failed to acquire lock")

		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// Release implements Locker. Releasing a lock held by another token is a no-op.
func (l *lockerImpl) Release(ctx context.Context, key, token string) (err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Release")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelLockKeyAttribute, key)

	released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("Locker", "Release").Msg("failed to release lock")

		return fmt.Errorf("failed to release lock: %w", err)
	}

	if released == 0 {
		log.Warn().Str("key", key).Str("Locker", "Release").Msg("lock already expired or held by another owner")
	}

	return nil
}

// WithLock runs fn while holding the lock, retrying acquisition with a
// linear backoff before giving up with ErrNotAcquired.
func (l *lockerImpl) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".WithLock")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelLockKeyAttribute, key)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, ok, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			return err
		}

		if ok {
			defer func() {
				// Release on a detached context so a cancelled request
				// does not leave the lock to expire on its own.
				releaseCtx := context.WithoutCancel(ctx)
				if releaseErr := l.Release(releaseCtx, key, token); releaseErr != nil {
					log.Error().Err(releaseErr).Str("key", key).Msg("failed to release lock after work")
				}
			}()

			return fn(ctx)
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("lock wait interrupted: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
	}

	return ErrNotAcquired
}
