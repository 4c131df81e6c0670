package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
)

// releaseScript deletes the key only if it still carries our token, so an
// expired holder cannot release a lease that has since passed to someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Redis connection pool settings.
const (
	redisMaxIdle     = 2
	redisIdleTimeout = 4 * time.Minute
)

// Redis is a Lease backed by a Redis key per lease name (SET NX PX).
type Redis struct {
	pool    *redis.Pool
	prefix  string
	release *redis.Script
}

// Ensure Redis implements Lease interface.
var _ Lease = (*Redis)(nil)

// NewRedis creates a Redis lease for the server at url
// (redis://[:password@]host:port[/db]). Keys are namespaced with prefix.
func NewRedis(url, prefix string) *Redis {
	pool := &redis.Pool{
		MaxIdle:     redisMaxIdle,
		IdleTimeout: redisIdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
	}
	return &Redis{pool: pool, prefix: prefix, release: redis.NewScript(1, releaseScript)}
}

// Acquire implements Lease.
func (r *Redis) Acquire(ctx context.Context, name string, ttl time.Duration) (Release, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, tferrors.Unavailable(fmt.Errorf("failed to connect to redis: %w", err))
	}
	defer func() { _ = conn.Close() }()

	key := r.key(name)
	token := uuid.NewString()

	_, err = redis.String(conn.Do("SET", key, token, "NX", "PX", ttl.Milliseconds()))
	switch {
	case errors.Is(err, redis.ErrNil):
		return nil, fmt.Errorf("lease '%s': %w", name, tferrors.ErrLeaseHeld)
	case err != nil:
		return nil, tferrors.Unavailable(fmt.Errorf("failed to acquire lease '%s': %w", name, err))
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			releaseErr = r.releaseToken(ctx, key, token)
		})
		return releaseErr
	}, nil
}

func (r *Redis) releaseToken(ctx context.Context, key, token string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return tferrors.Unavailable(fmt.Errorf("failed to connect to redis: %w", err))
	}
	defer func() { _ = conn.Close() }()

	if _, err := r.release.Do(conn, key, token); err != nil {
		return tferrors.Unavailable(fmt.Errorf("failed to release lease: %w", err))
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}

func (r *Redis) key(name string) string {
	if r.prefix == "" {
		return "lease:" + name
	}
	return r.prefix + ":lease:" + name
}
