package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/travelblog/internal/model"
)

// PostgresNewsletterRepo はPostgreSQLを使用したニュースレター購読者リポジトリ。
type PostgresNewsletterRepo struct {
	db *sql.DB
}

// NewPostgresNewsletterRepo はPostgresNewsletterRepoを生成する。
func NewPostgresNewsletterRepo(db *sql.DB) *PostgresNewsletterRepo {
	return &PostgresNewsletterRepo{db: db}
}

// Subscribe は購読者を登録する。emailが既に登録済みの場合は何もせずfalseを返す。
func (r *PostgresNewsletterRepo) Subscribe(ctx context.Context, s *model.NewsletterSubscriber) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, email, locale, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		s.ID, s.Email, s.Locale, s.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// PostgresContactRepo はPostgreSQLを使用したお問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create はメッセージを保存する。
func (r *PostgresContactRepo) Create(ctx context.Context, m *model.ContactMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.IPAddress, m.UserAgent, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ NewsletterRepository = (*PostgresNewsletterRepo)(nil)
	_ ContactRepository    = (*PostgresContactRepo)(nil)
)
