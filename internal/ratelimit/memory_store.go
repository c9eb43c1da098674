package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval は期限切れエントリを掃除する既定の間隔。
const DefaultSweepInterval = 5 * time.Minute

// MemoryStore はプロセス内のマップにカウンタを保持するStore実装。
// マップ全体を1つのMutexで保護する。
// 生成時に掃除用goroutineを起動し、Closeで停止する。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry

	now           func() time.Time
	sweepInterval time.Duration

	stopCh    chan struct{}
	closeOnce sync.Once
}

// MemoryStoreOption はMemoryStoreの生成オプション。
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval は掃除間隔を設定する。0以下の場合は掃除goroutineを起動しない。
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.sweepInterval = d }
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore は新しいMemoryStoreを生成する。
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]*Entry),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	}

	return s
}

// Increment はStoreインターフェースを実装する。
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Entry, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.ResetTime) {
		entry = &Entry{Count: 1, ResetTime: now.Add(window)}
		s.entries[key] = entry
		return *entry, nil
	}

	entry.Count++
	return *entry, nil
}

// Sweep はリセット時刻を過ぎたエントリを全て削除し、削除件数を返す。
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.ResetTime) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len は現在保持しているエントリ数を返す。テストおよびメトリクス用。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close は掃除goroutineを停止する。複数回呼び出しても安全。
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
