package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/travelblog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
// postsテーブルはCMSからの同期で更新される。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// FindByID は指定IDの記事とコメント設定を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	p := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, slug, title, locale,
		        comments_enabled, require_approval, allow_replies, comment_max_length,
		        created_at, updated_at
		 FROM posts
		 WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Slug, &p.Title, &p.Locale,
		&p.Comments.Enabled, &p.Comments.RequireApproval, &p.Comments.AllowReplies, &p.Comments.MaxLength,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return p, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
