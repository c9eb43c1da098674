// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// メッセージはUIの言語（ポーランド語）で保持する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, comment, rate_limit, system
	Action   string // ユーザー向け対処方法

	// RetryAfter は再試行まで待つべき秒数。0の場合はヘッダーを付与しない。
	RetryAfter int
	// Limit はレート制限の上限値。0の場合はX-RateLimit-*ヘッダーを付与しない。
	Limit int
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeDuplicateSubmission = "DUPLICATE_SUBMISSION"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeCommentNotFound     = "COMMENT_NOT_FOUND"
	ErrCodeCommentsDisabled    = "COMMENTS_DISABLED"
	ErrCodeRepliesDisabled     = "REPLIES_DISABLED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeCSRFMismatch        = "CSRF_MISMATCH"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は入力値エラーを生成する。
// messageにはどのフィールドが不正かを示す具体的な文言を渡す。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を修正して再度送信してください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError(limit, retryAfter int) *APIError {
	return &APIError{
		Code:       ErrCodeRateLimited,
		Message:    fmt.Sprintf("Zbyt wiele prób. Spróbuj ponownie za %d sekund.", retryAfter),
		Category:   "rate_limit",
		Action:     "指定された秒数待ってから再度お試しください。",
		RetryAfter: retryAfter,
		Limit:      limit,
	}
}

// NewTooManyRequestsError は同一IPからの連続投稿（フラッド）エラーを生成する。
func NewTooManyRequestsError(retryAfter int) *APIError {
	return &APIError{
		Code:       ErrCodeTooManyRequests,
		Message:    "Zbyt wiele komentarzy z tego adresu IP. Spróbuj ponownie później.",
		Category:   "rate_limit",
		Action:     "しばらく待ってから再度投稿してください。",
		RetryAfter: retryAfter,
	}
}

// NewDuplicateSubmissionError は同一内容の再投稿エラーを生成する。
func NewDuplicateSubmissionError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSubmission,
		Message:  "Ten komentarz został już wysłany.",
		Category: "comment",
		Action:   "同じ内容のコメントは既に送信済みです。",
	}
}

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("Post nie został znaleziony: %s", postID),
		Category: "comment",
		Action:   "記事IDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
// 一括操作の場合は見つからなかったID全てを渡す。
func NewCommentNotFoundError(commentIDs ...string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("Komentarz nie został znaleziony: %s", strings.Join(commentIDs, ", ")),
		Category: "comment",
		Action:   "コメントIDを確認してください。",
	}
}

// NewCommentsDisabledError はコメント受付停止中の記事への投稿エラーを生成する。
func NewCommentsDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeCommentsDisabled,
		Message:  "Komentarze są wyłączone dla tego posta",
		Category: "comment",
		Action:   "この記事ではコメントを受け付けていません。",
	}
}

// NewRepliesDisabledError は返信が許可されていない記事への返信エラーを生成する。
func NewRepliesDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeRepliesDisabled,
		Message:  "Odpowiedzi na komentarze są wyłączone dla tego posta",
		Category: "comment",
		Action:   "返信ではなく新しいコメントとして投稿してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
		Action:   "管理者としてログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
// 管理画面ではこのコードを受け取るとログイン画面へリダイレクトする。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Brak autoryzacji",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は管理者ログインのパスワード不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Nieprawidłowe hasło",
		Category: "auth",
		Action:   "パスワードを確認してください。",
	}
}

// NewCSRFMismatchError はCSRFトークン不一致エラーを生成する。
func NewCSRFMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFMismatch,
		Message:  "Nieprawidłowy token CSRF",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Nieprawidłowe dane żądania",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Wystąpił błąd serwera",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
