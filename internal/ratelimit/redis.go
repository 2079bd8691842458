// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// KeyPrefix namespaces limiter counters in redis.
const KeyPrefix = "bioauth:ratelimit:"

// fixedWindow increments the counter and starts its expiry on first use.
// Returns {count, remaining ttl in ms}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis is a fixed window counter shared through a redis server.
type Redis struct {
	client redis.Scripter
	limit  int
	window time.Duration
}

// NewRedis creates a limiter allowing limit requests per window for each key.
// A non-positive window selects DefaultWindow.
func NewRedis(client redis.Scripter, limit int, window time.Duration) (*Redis, error) {
	if client == nil {
		return nil, oops.Code("RATELIMIT_INVALID_CONFIG").Errorf("redis client is required")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, limit: limit, window: window}, nil
}

// Allow counts one request against key's current window.
func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindow.Run(ctx, r.client, []string{KeyPrefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, oops.Code("RATELIMIT_BACKEND_FAILED").With("key", key).Wrap(err)
	}
	if len(res) != 2 {
		return Decision{}, oops.Code("RATELIMIT_BACKEND_FAILED").With("key", key).Errorf("unexpected script reply of %d values", len(res))
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > r.limit {
		return Decision{Allowed: false, Limit: r.limit, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit - count}, nil
}
