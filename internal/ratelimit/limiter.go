package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Config はエンドポイント種別ごとのレート制限設定。
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// 定義済みのレート制限設定
var (
	// CommentsConfig はコメント投稿用（5回 / 5分）。
	CommentsConfig = Config{MaxRequests: 5, Window: 5 * time.Minute}
	// AuthConfig は管理者ログイン用（5回 / 15分）。
	AuthConfig = Config{MaxRequests: 5, Window: 15 * time.Minute}
	// NewsletterConfig はニュースレター登録用（3回 / 1時間）。
	NewsletterConfig = Config{MaxRequests: 3, Window: time.Hour}
	// ContactConfig はお問い合わせフォーム用（3回 / 10分）。
	ContactConfig = Config{MaxRequests: 3, Window: 10 * time.Minute}
)

// キーのカテゴリ接頭辞
const (
	CategoryComment    = "comment"
	CategoryAuth       = "auth"
	CategoryNewsletter = "newsletter"
	CategoryContact    = "contact"
)

// Key はカテゴリとクライアント識別子（IPアドレス）からキーを組み立てる。
func Key(category, clientID string) string {
	return category + ":" + clientID
}

// Result はレート制限の判定結果。
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter はリセットまでの秒数（切り上げ、最小1）を返す。
func (r Result) RetryAfter(now time.Time) int {
	sec := int(math.Ceil(r.Reset.Sub(now).Seconds()))
	if sec < 1 {
		return 1
	}
	return sec
}

// DecisionRecorder は判定結果を記録するインターフェース。
type DecisionRecorder interface {
	RecordRateLimitDecision(category string, allowed bool)
}

// Limiter は固定ウィンドウ方式のレート制限器。
// ウィンドウ境界をまたぐと短時間に最大2倍のリクエストが通りうる。
type Limiter struct {
	store    Store
	logger   *slog.Logger
	recorder DecisionRecorder
	now      func() time.Time
}

// NewLimiter は新しいLimiterを生成する。recorderはnilでもよい。
func NewLimiter(store Store, logger *slog.Logger, recorder DecisionRecorder) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:    store,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Check は識別子に対するリクエストを1回カウントし、許可されるかを判定する。
// ストアが全て失敗した場合でもエラーは返さず、許可（fail-open）として扱う。
func (l *Limiter) Check(ctx context.Context, identifier string, cfg Config) Result {
	entry, err := l.store.Increment(ctx, identifier, cfg.Window)
	if err != nil {
		l.logger.Error("rate limit check failed, allowing request",
			slog.String("key", identifier),
			slog.String("error", err.Error()),
		)
		return Result{
			Success:   true,
			Limit:     cfg.MaxRequests,
			Remaining: max(cfg.MaxRequests-1, 0),
			Reset:     l.now().Add(cfg.Window),
		}
	}

	result := Result{
		Success:   entry.Count <= cfg.MaxRequests,
		Limit:     cfg.MaxRequests,
		Remaining: max(cfg.MaxRequests-entry.Count, 0),
		Reset:     entry.ResetTime,
	}

	if l.recorder != nil {
		l.recorder.RecordRateLimitDecision(categoryOf(identifier), result.Success)
	}
	if !result.Success {
		l.logger.Warn("rate limit exceeded",
			slog.String("key", identifier),
			slog.Int("count", entry.Count),
			slog.Int("limit", cfg.MaxRequests),
		)
	}

	return result
}

// Now はLimiterが使用する現在時刻を返す。
func (l *Limiter) Now() time.Time {
	return l.now()
}

// categoryOf はキーの接頭辞（最初の":"より前）を返す。
func categoryOf(identifier string) string {
	if i := strings.IndexByte(identifier, ':'); i > 0 {
		return identifier[:i]
	}
	return "unknown"
}
