package app

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/travelblog/internal/config"
	"github.com/hitoshi/travelblog/internal/ratelimit"
)

// redisKeyPrefix はレート制限キーをほかの用途のキーと区別する。
const redisKeyPrefix = "travelblog:ratelimit:"

// rateLimitBackend はレート制限ストアと、シャットダウン時の後始末をまとめたもの。
type rateLimitBackend struct {
	store   ratelimit.Store
	memory  *ratelimit.MemoryStore
	redis   *redis.Client
	backend string
}

// Close はスイーパーとRedis接続を停止する。
func (b *rateLimitBackend) Close() {
	if b.memory != nil {
		b.memory.Close()
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
}

// newRateLimitBackend はREDIS_URLの有無でストアを選択する。
// 設定されている場合はRedisを優先し、障害時はインメモリに切り替える。
// 未設定の場合はインメモリのみで動作する。
func newRateLimitBackend(cfg *config.Config, logger *slog.Logger, recorder ratelimit.FallbackRecorder) (*rateLimitBackend, error) {
	memory := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(cfg.RateLimitSweepInterval))

	if cfg.RedisURL == "" {
		return &rateLimitBackend{store: memory, memory: memory, backend: "memory"}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		memory.Close()
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	if cfg.RedisToken != "" {
		opts.Password = cfg.RedisToken
	}
	opts.DialTimeout = cfg.RedisTimeout
	opts.ReadTimeout = cfg.RedisTimeout
	opts.WriteTimeout = cfg.RedisTimeout

	rdb := redis.NewClient(opts)
	primary := ratelimit.NewRedisStore(rdb,
		ratelimit.WithKeyPrefix(redisKeyPrefix),
		ratelimit.WithTimeout(cfg.RedisTimeout),
	)

	return &rateLimitBackend{
		store:   ratelimit.NewFallbackStore(primary, memory, logger, recorder),
		memory:  memory,
		redis:   rdb,
		backend: "redis",
	}, nil
}
