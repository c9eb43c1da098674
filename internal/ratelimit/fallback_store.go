package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// FallbackRecorder はフォールバック発生を記録するインターフェース。
type FallbackRecorder interface {
	RecordStoreFallback()
}

// FallbackStore はprimaryでエラーが起きた場合にその呼び出しだけfallbackへ切り替えるStore。
// 可用性を優先するため、Redis障害中のレート制限はプロセス単位になる。
// リトライは行わない。
type FallbackStore struct {
	primary  Store
	fallback Store
	logger   *slog.Logger
	recorder FallbackRecorder
}

// NewFallbackStore は新しいFallbackStoreを生成する。recorderはnilでもよい。
func NewFallbackStore(primary, fallback Store, logger *slog.Logger, recorder FallbackRecorder) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		recorder: recorder,
	}
}

// Increment はStoreインターフェースを実装する。
func (s *FallbackStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
	entry, err := s.primary.Increment(ctx, key, window)
	if err == nil {
		return entry, nil
	}

	s.logger.Warn("rate limit store unavailable, falling back to in-memory store",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	if s.recorder != nil {
		s.recorder.RecordStoreFallback()
	}

	return s.fallback.Increment(ctx, key, window)
}

// compile-time interface check
var _ Store = (*FallbackStore)(nil)
