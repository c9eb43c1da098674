package model

import "time"

// DefaultCommentMaxLength は記事側で上限が未設定の場合のコメント最大文字数。
const DefaultCommentMaxLength = 1000

// Post はCMSで管理されるブログ記事を表す。
// コメントワークフローからは読み取り専用として扱う。
type Post struct {
	ID        string
	Slug      string
	Title     string
	Locale    string // "pl" または "en"
	Comments  CommentPolicy
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentPolicy は記事ごとのコメントモデレーション設定。
type CommentPolicy struct {
	Enabled         bool // コメント受付の可否
	RequireApproval bool // 新規コメントを承認待ちで作成するか
	AllowReplies    bool // スレッド返信の可否
	MaxLength       int  // 0以下の場合はDefaultCommentMaxLength
}

// EffectiveMaxLength は実際に適用するコメント最大文字数を返す。
func (p CommentPolicy) EffectiveMaxLength() int {
	if p.MaxLength <= 0 {
		return DefaultCommentMaxLength
	}
	return p.MaxLength
}

// InitialStatus は新規コメントの初期ステータスを返す。
// 投稿者が初期ステータスを選ぶことはできない。
func (p CommentPolicy) InitialStatus() CommentStatus {
	if p.RequireApproval {
		return CommentStatusPending
	}
	return CommentStatusApproved
}
