// Package cleanup は不要データの自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超過したスパムコメントと、
// 期限切れの管理者セッションを日次バッチで削除する。
// スパムコメントへの返信はCASCADE削除で自動的に処理される。
package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultSpamRetentionDays はスパムコメントの既定の保持日数。
const DefaultSpamRetentionDays = 30

// 削除対象の種別（メトリクスのラベル）
const (
	KindSpamComments  = "spam_comments"
	KindAdminSessions = "admin_sessions"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder は削除件数を記録するインターフェース。
type Recorder interface {
	RecordCleanupDeleted(kind string, count int64)
}

// CleanupJob は不要データの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db                Executor
	logger            *slog.Logger
	recorder          Recorder
	SpamRetentionDays int // スパムコメントの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。recorderはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, recorder Recorder) *CleanupJob {
	return &CleanupJob{
		db:                db,
		logger:            logger,
		recorder:          recorder,
		SpamRetentionDays: DefaultSpamRetentionDays,
	}
}

type task struct {
	kind  string
	query string
	args  []interface{}
}

// Run はスパムコメントと期限切れセッションを削除する。
// 一方が失敗しても他方は実行し、発生したエラーをまとめて返す。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	tasks := []task{
		{
			kind:  KindSpamComments,
			query: `DELETE FROM comments WHERE status = 'spam' AND created_at < now() - $1::interval`,
			args:  []interface{}{fmt.Sprintf("%d days", j.SpamRetentionDays)},
		},
		{
			kind:  KindAdminSessions,
			query: `DELETE FROM admin_sessions WHERE expires_at <= now()`,
		},
	}

	var errs []error
	for _, t := range tasks {
		deleted, err := j.exec(ctx, t)
		if err != nil {
			j.logger.Error("クリーンアップジョブの実行に失敗しました",
				slog.String("kind", t.kind),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}

		if j.recorder != nil {
			j.recorder.RecordCleanupDeleted(t.kind, deleted)
		}
		j.logger.Info("クリーンアップが完了しました",
			slog.String("kind", t.kind),
			slog.Int64("deleted_count", deleted),
		)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int("spam_retention_days", j.SpamRetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return errors.Join(errs...)
}

func (j *CleanupJob) exec(ctx context.Context, t task) (int64, error) {
	result, err := j.db.ExecContext(ctx, t.query, t.args...)
	if err != nil {
		return 0, fmt.Errorf("%sの削除に失敗: %w", t.kind, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}

// Schedule は起動直後に1回実行し、その後intervalごとにRunを繰り返す。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Schedule(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
