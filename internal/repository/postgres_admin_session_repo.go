package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/travelblog/internal/model"
)

// PostgresAdminSessionRepo はPostgreSQLを使用した管理者セッションリポジトリ。
type PostgresAdminSessionRepo struct {
	db *sql.DB
}

// NewPostgresAdminSessionRepo はPostgresAdminSessionRepoを生成する。
func NewPostgresAdminSessionRepo(db *sql.DB) *PostgresAdminSessionRepo {
	return &PostgresAdminSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresAdminSessionRepo) Create(ctx context.Context, session *model.AdminSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, expires_at, created_at)
		 VALUES ($1, $2, $3)`,
		session.ID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresAdminSessionRepo) FindByID(ctx context.Context, id string) (*model.AdminSession, error) {
	session := &model.AdminSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, expires_at, created_at
		 FROM admin_sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin session: %w", err)
	}

	return session, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresAdminSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete admin session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AdminSessionRepository = (*PostgresAdminSessionRepo)(nil)
