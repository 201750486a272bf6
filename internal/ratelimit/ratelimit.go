// Package ratelimit throttles chat and signaling traffic per key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// New picks the shared redis limiter when an address is configured.
func New(cfg Config, rcfg RedisConfig) Limiter {
	if cfg.Limit <= 0 {
		return Unlimited{}
	}
	if rcfg.Addr == "" {
		return NewMemory(cfg.Limit, cfg.Interval)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     rcfg.Addr,
		Password: rcfg.Password,
		DB:       rcfg.DB,
	})
	log.Info().Str("module", "ratelimit").Str("addr", rcfg.Addr).Msg("using redis limiter")
	return NewRedis(rdb, cfg.Limit, cfg.Interval)
}

type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) bool { return true }

// Memory is a sliding-window limiter local to the process.
type Memory struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewMemory(limit int, interval time.Duration) *Memory {
	if interval <= 0 {
		interval = time.Second
	}
	return &Memory{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *Memory) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}
	rl.history[key] = append(fresh, now)
	return true
}

// Forget drops the history of key, e.g. when its connection closes.
func (rl *Memory) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, key)
}

// Redis is a fixed-window counter shared by every relay instance. It fails
// open when redis is unreachable.
type Redis struct {
	rdb      redis.Cmdable
	limit    int64
	interval time.Duration
	prefix   string
}

func NewRedis(rdb redis.Cmdable, limit int, interval time.Duration) *Redis {
	if interval <= 0 {
		interval = time.Second
	}
	return &Redis{rdb: rdb, limit: int64(limit), interval: interval, prefix: "rl:relay"}
}

func (rl *Redis) Allow(ctx context.Context, key string) bool {
	k := rl.prefix + ":" + key
	n, err := rl.rdb.Incr(ctx, k).Result()
	if err != nil {
		log.Warn().Err(err).Str("module", "ratelimit").Str("key", k).Msg("redis error, allowing")
		return true
	}
	if n == 1 {
		if err := rl.rdb.Expire(ctx, k, rl.interval).Err(); err != nil {
			log.Warn().Err(err).Str("module", "ratelimit").Str("key", k).Msg("redis expire failed")
		}
	}
	return n <= rl.limit
}
