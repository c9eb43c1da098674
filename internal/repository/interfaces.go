// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/travelblog/internal/model"
)

// PostRepository は記事データの読み取りインターフェース。
// 記事自体はCMSが管理するため、コメントワークフローからは参照のみ行う。
type PostRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByPost は記事とステータスでコメントを検索し、created_at昇順で返す。
	ListByPost(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error)

	// ListByStatus はステータスでコメントを検索し、created_at降順で最大limit件返す。
	// 管理画面のモデレーションキュー用。
	ListByStatus(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error)

	// CountByIPSince は指定IPからsince以降に作成されたコメント数を返す。
	CountByIPSince(ctx context.Context, ipAddress string, since time.Time) (int, error)

	// ExistsDuplicate は同一IPから同一内容のコメントがsince以降に作成されているかを返す。
	ExistsDuplicate(ctx context.Context, content, ipAddress string, since time.Time) (bool, error)

	// UpdateStatus はステータスとupdated_atを更新し、更新後のコメントを返す。
	// 見つからない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.CommentStatus, updatedAt time.Time) (*model.Comment, error)

	// UpdateStatusBulk は複数コメントのステータスを1トランザクションで更新する。
	// 1件でも存在しないIDがあれば何も更新せず、見つからなかったIDを返す。
	UpdateStatusBulk(ctx context.Context, ids []string, status model.CommentStatus, updatedAt time.Time) (updated int, missing []string, err error)

	// Delete は指定IDのコメントを物理削除する。削除した場合はtrueを返す。
	// 返信コメントはCASCADE削除される。
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminSessionRepository は管理者セッションの永続化インターフェース。
type AdminSessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.AdminSession) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdminSession, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// NewsletterRepository はニュースレター購読者の永続化インターフェース。
type NewsletterRepository interface {
	// Subscribe は購読者を登録する。既に登録済みの場合はfalseを返す。
	Subscribe(ctx context.Context, subscriber *model.NewsletterSubscriber) (bool, error)
}

// ContactRepository はお問い合わせメッセージの永続化インターフェース。
type ContactRepository interface {
	// Create はメッセージを保存する。
	Create(ctx context.Context, message *model.ContactMessage) error
}
