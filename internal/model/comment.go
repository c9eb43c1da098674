package model

import "time"

// CommentStatus はコメントのモデレーション状態を表す。
type CommentStatus string

const (
	// CommentStatusPending は承認待ちの状態。
	CommentStatusPending CommentStatus = "pending"
	// CommentStatusApproved は公開済みの状態。
	CommentStatusApproved CommentStatus = "approved"
	// CommentStatusRejected は却下された状態。
	CommentStatusRejected CommentStatus = "rejected"
	// CommentStatusSpam はスパム判定された状態。
	CommentStatusSpam CommentStatus = "spam"
)

// IsValid はステータスが定義済みの4値のいずれかであるかを判定する。
// 管理者による遷移は4値間で無制限に許可されるため、遷移表は持たない。
func (s CommentStatus) IsValid() bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected, CommentStatusSpam:
		return true
	default:
		return false
	}
}

// Comment は記事に投稿されたコメントを表す。
type Comment struct {
	ID          string
	PostID      string
	ParentID    *string // スレッド返信の場合の親コメントID
	AuthorName  string
	AuthorEmail string
	Content     string // サニタイズ済みプレーンテキスト
	Status      CommentStatus
	IPAddress   string // 公開しない
	UserAgent   string // 公開しない
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
