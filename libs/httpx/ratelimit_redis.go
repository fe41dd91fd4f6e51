package httpx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript increments the window counter, starts its expiry on the first
// hit and returns {hits, remaining ms}.
var takeScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter shares windows across every replica through Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	limit, window = limiterDefaults(limit, window)
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	if res[0] > int64(l.limit) {
		retry := time.Duration(res[1]) * time.Millisecond
		if retry <= 0 {
			retry = l.window
		}
		return Decision{RetryAfter: retry}, nil
	}
	return Decision{Allowed: true}, nil
}
