package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript はINCRとPEXPIREをアトミックに実行する。
// 初回（count==1）またはTTLが失われている場合のみ有効期限を設定するため、
// ウィンドウ内の後続リクエストでリセット時刻は延長されない。
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore はRedisにカウンタを保持するStore実装。
// 全インスタンスで同じRedisを参照するため、レート制限はグローバルに効く。
type RedisStore struct {
	rdb     redis.Scripter
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// RedisStoreOption はRedisStoreの生成オプション。
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix はRedisキーの接頭辞を設定する。
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTimeout は1回の呼び出しあたりのタイムアウトを設定する。
func WithTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.timeout = d }
}

// NewRedisStore は新しいRedisStoreを生成する。
func NewRedisStore(rdb redis.Scripter, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		prefix:  "ratelimit:",
		timeout: 500 * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment はStoreインターフェースを実装する。
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	vals, err := incrementScript.Run(ctx, s.rdb, []string{s.prefix + key}, windowMs).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if len(vals) != 2 {
		return Entry{}, fmt.Errorf("unexpected rate limit script reply: %v", vals)
	}

	return Entry{
		Count:     int(vals[0]),
		ResetTime: s.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
