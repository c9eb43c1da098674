package model

import "time"

// AdminSession は管理者のログインセッションを表す。
type AdminSession struct {
	ID        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewsletterSubscriber はニュースレター購読者を表す。
type NewsletterSubscriber struct {
	ID        string
	Email     string
	Locale    string
	CreatedAt time.Time
}

// ContactMessage はお問い合わせフォームから送信されたメッセージを表す。
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string // サニタイズ済みプレーンテキスト
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
