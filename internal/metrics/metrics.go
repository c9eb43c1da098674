// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// レート制限、コメントワークフロー、HTTP層、クリーンアップジョブから利用する。
type Collector struct {
	rateLimitDecisions *prometheus.CounterVec
	storeFallbacks     prometheus.Counter
	submissions        *prometheus.CounterVec
	moderation         *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
	requestLatency     prometheus.Histogram
	cleanupDeleted     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelblog_ratelimit_decisions_total",
			Help: "カテゴリ別のレート制限判定数",
		}, []string{"category", "result"}),
		storeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travelblog_ratelimit_store_fallback_total",
			Help: "リモートストア障害によりインメモリへフォールバックした回数",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelblog_comment_submissions_total",
			Help: "結果別のコメント投稿数",
		}, []string{"outcome"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelblog_comment_moderation_total",
			Help: "変更後ステータス別のモデレーション件数",
		}, []string{"status"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelblog_http_responses_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "travelblog_http_request_duration_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travelblog_cleanup_deleted_total",
			Help: "クリーンアップジョブで削除したレコード数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.rateLimitDecisions,
		c.storeFallbacks,
		c.submissions,
		c.moderation,
		c.httpStatus,
		c.requestLatency,
		c.cleanupDeleted,
	)

	return c
}

// RecordRateLimitDecision はレート制限の判定結果を記録する。
func (c *Collector) RecordRateLimitDecision(category string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	c.rateLimitDecisions.WithLabelValues(category, result).Inc()
}

// RecordStoreFallback はインメモリストアへのフォールバックを記録する。
func (c *Collector) RecordStoreFallback() {
	c.storeFallbacks.Inc()
}

// RecordCommentSubmission はコメント投稿の結果を記録する。
func (c *Collector) RecordCommentSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

// RecordModeration はモデレーション操作を記録する。
func (c *Collector) RecordModeration(status string, count int) {
	c.moderation.WithLabelValues(status).Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordCleanupDeleted はクリーンアップで削除した件数を記録する。
func (c *Collector) RecordCleanupDeleted(kind string, count int64) {
	c.cleanupDeleted.WithLabelValues(kind).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
