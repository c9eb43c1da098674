package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/ratelimit"
)

// ThrottleConfig はAPI全体に掛けるIP単位のトークンバケット設定を保持する。
type ThrottleConfig struct {
	Rate            rate.Limit    // 1秒あたりのリクエスト数。120/60 = 2 req/sec
	Burst           int           // バーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultThrottleConfig はデフォルトの設定を返す。
// API全般 120 req/min/IP。
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottlePerMinute(120)
}

// ThrottlePerMinute は1分あたりの許容リクエスト数から設定を組み立てる。
func ThrottlePerMinute(perMinute int) ThrottleConfig {
	return ThrottleConfig{
		Rate:            rate.Limit(float64(perMinute) / 60.0),
		Burst:           perMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// ipLimiter はIPごとのレートリミッターとアクセス時刻を保持する。
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle はスクレイピング対策としてIP単位のレート制限を管理する。
// 投稿系エンドポイントの固定ウィンドウ制限とは独立に動作する。
type Throttle struct {
	config ThrottleConfig

	mu       sync.RWMutex
	limiters map[string]*ipLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewThrottle は新しいThrottleを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewThrottle(config ThrottleConfig) *Throttle {
	t := &Throttle{
		config:   config,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}

	go t.cleanupLoop()

	return t
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (t *Throttle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// Middleware はIP単位のレート制限ミドルウェアを返す。
// ClientIPミドルウェアの後に配置する。
func (t *Throttle) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFromContext(r.Context())

			if !t.getOrCreate(ip).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "general"),
				)
				WriteErrorResponse(w, http.StatusTooManyRequests,
					model.NewRateLimitedError(t.config.Burst, retryAfterForRate(t.config.Rate)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Len は現在管理されているエントリ数を返す。テスト用。
func (t *Throttle) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.limiters)
}

func (t *Throttle) getOrCreate(ip string) *rate.Limiter {
	t.mu.RLock()
	il, exists := t.limiters[ip]
	t.mu.RUnlock()

	if exists {
		t.mu.Lock()
		il.lastAccess = time.Now()
		t.mu.Unlock()
		return il.limiter
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// ダブルチェック
	if il, exists := t.limiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(t.config.Rate, t.config.Burst)
	t.limiters[ip] = &ipLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (t *Throttle) cleanupLoop() {
	ticker := time.NewTicker(t.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(time.Now())
		case <-t.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (t *Throttle) cleanup(now time.Time) {
	ttl := t.config.CleanupInterval * 2

	t.mu.Lock()
	defer t.mu.Unlock()
	for ip, il := range t.limiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(t.limiters, ip)
		}
	}
}

// retryAfterForRate は1トークンが補充されるまでの秒数（最小1）を返す。
func retryAfterForRate(r rate.Limit) int {
	if r <= 0 {
		return 60
	}
	sec := int(math.Ceil(1.0 / float64(r)))
	if sec < 1 {
		return 1
	}
	return sec
}

// WindowChecker は固定ウィンドウのレート制限判定を行う。
// ratelimit.Limiterが実装する。
type WindowChecker interface {
	Check(ctx context.Context, identifier string, cfg ratelimit.Config) ratelimit.Result
	Now() time.Time
}

// NewFixedWindowMiddleware はカテゴリごとの固定ウィンドウ制限を掛けるミドルウェアを返す。
// 判定結果はX-RateLimit-*ヘッダーで常に通知し、超過時は429 RATE_LIMITEDを返す。
func NewFixedWindowMiddleware(checker WindowChecker, category string, cfg ratelimit.Config) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.Key(category, ClientIPFromContext(r.Context()))
			result := checker.Check(r.Context(), key, cfg)

			if !result.Success {
				WriteErrorResponse(w, http.StatusTooManyRequests,
					model.NewRateLimitedError(result.Limit, result.RetryAfter(checker.Now())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
