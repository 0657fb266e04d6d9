package main

import (
	"context"
	"time"

	"amd-dialer/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// gateSlotTTL bounds how long a crashed process can hold capacity.
// It must exceed the longest plausible call leg.
const gateSlotTTL = 15 * time.Minute

// redisGate caps in-flight calls across all API processes using an
// atomic redis counter.
type redisGate struct {
	rdb   *redis.Client
	key   string
	limit int
}

func newRedisGate(rdb *redis.Client, limit int) *redisGate {
	return &redisGate{rdb: rdb, key: "amd:calls:active", limit: limit}
}

func (g *redisGate) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, g.rdb, g.key, g.limit, gateSlotTTL)
}

func (g *redisGate) Release(ctx context.Context) error {
	return utils.ReleaseConcurrencyCap(ctx, g.rdb, g.key)
}
