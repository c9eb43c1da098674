package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/travelblog/internal/model"
)

const commentColumns = `id, post_id, parent_id, author_name, author_email, content, status,
	ip_address, user_agent, created_at, updated_at`

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(s rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	var parentID sql.NullString
	var status string

	err := s.Scan(
		&c.ID, &c.PostID, &parentID,
		&c.AuthorName, &c.AuthorEmail, &c.Content, &status,
		&c.IPAddress, &c.UserAgent,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	c.Status = model.CommentStatus(status)
	return c, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.PostID, c.ParentID,
		c.AuthorName, c.AuthorEmail, c.Content, string(c.Status),
		c.IPAddress, c.UserAgent,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// ListByPost は記事とステータスでコメントを検索し、created_at昇順で返す。
func (r *PostgresCommentRepo) ListByPost(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id = $1 AND status = $2
		 ORDER BY created_at ASC`,
		postID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return collectComments(rows)
}

// ListByStatus はステータスでコメントを検索し、created_at降順で最大limit件返す。
func (r *PostgresCommentRepo) ListByStatus(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE status = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by status: %w", err)
	}
	return collectComments(rows)
}

func collectComments(rows *sql.Rows) ([]*model.Comment, error) {
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}
	return comments, nil
}

// CountByIPSince は指定IPからsince以降に作成されたコメント数を返す。
func (r *PostgresCommentRepo) CountByIPSince(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE ip_address = $1 AND created_at >= $2`,
		ipAddress, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments by ip: %w", err)
	}
	return count, nil
}

// ExistsDuplicate は同一IPから同一内容のコメントがsince以降に作成されているかを返す。
func (r *PostgresCommentRepo) ExistsDuplicate(ctx context.Context, content, ipAddress string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM comments
		     WHERE ip_address = $1 AND content = $2 AND created_at >= $3
		 )`,
		ipAddress, content, since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate comment: %w", err)
	}
	return exists, nil
}

// UpdateStatus はステータスとupdated_atを更新し、更新後のコメントを返す。
// 見つからない場合はnilを返す。
func (r *PostgresCommentRepo) UpdateStatus(ctx context.Context, id string, status model.CommentStatus, updatedAt time.Time) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx,
		`UPDATE comments SET status = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+commentColumns,
		id, string(status), updatedAt,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment status: %w", err)
	}
	return c, nil
}

// UpdateStatusBulk は複数コメントのステータスを1トランザクションで更新する。
// 対象行をFOR UPDATEでロックして存在確認した後に更新するため、
// 途中で失敗した場合も部分的な更新は残らない。
func (r *PostgresCommentRepo) UpdateStatusBulk(ctx context.Context, ids []string, status model.CommentStatus, updatedAt time.Time) (int, []string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM comments WHERE id = ANY($1::uuid[]) FOR UPDATE`,
		pq.Array(ids),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to lock comments: %w", err)
	}

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan comment id: %w", err)
		}
		found[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("failed to scan comment id: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, missing, nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE comments SET status = $2, updated_at = $3 WHERE id = ANY($1::uuid[])`,
		pq.Array(ids), string(status), updatedAt,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to bulk update comment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return int(affected), nil, nil
}

// Delete は指定IDのコメントを物理削除する。削除した場合はtrueを返す。
func (r *PostgresCommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
