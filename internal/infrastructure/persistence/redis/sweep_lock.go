package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock is a SET NX PX lock shared by every engine instance.
type SweepLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger logger.Logger
}

// NewSweepLock creates a lock on key. The TTL bounds how long a crashed holder
// keeps other instances out.
func NewSweepLock(client redis.UniversalClient, key string, ttl time.Duration, log logger.Logger) service.SweepLock {
	return &SweepLock{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: log.WithComponent("sweep_lock"),
	}
}

func (l *SweepLock) TryAcquire(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errors.ErrUnavailable("sweep lock unavailable").WithCause(err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return errors.ErrUnavailable("sweep lock release failed").WithCause(err)
		}
		if n == 0 {
			l.logger.Warn(ctx, "Sweep lock expired before release", logger.String("key", l.key))
		}
		return nil
	}
	return release, true, nil
}
