// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/travelblog/internal/model"
)

// AdminSessionCookieName は管理者セッションの署名付きIDを保持するCookieの名前。
const AdminSessionCookieName = "admin_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var adminSessionContextKey = contextKey("admin_session")

// SessionAuthenticator はCookie値から管理者セッションを解決する。
// auth.Serviceが実装する。
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, cookieValue string) (*model.AdminSession, error)
}

// NewAdminSessionMiddleware は管理者セッションを必須とするミドルウェアを返す。
// 有効なセッションがない場合は401 UNAUTHORIZEDを返す。
// CSRF検証より前に配置する。
func NewAdminSessionMiddleware(authenticator SessionAuthenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolveAdminSession(r, authenticator)
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAdminSession(r.Context(), session)))
		})
	}
}

// NewOptionalAdminSessionMiddleware はセッションがあればコンテキストに注入し、
// なければそのまま通すミドルウェアを返す。
// 公開エンドポイントで管理者のみ追加の操作を許す場合に使用する。
func NewOptionalAdminSessionMiddleware(authenticator SessionAuthenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := resolveAdminSession(r, authenticator); session != nil {
				r = r.WithContext(ContextWithAdminSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveAdminSession(r *http.Request, authenticator SessionAuthenticator) *model.AdminSession {
	cookie, err := r.Cookie(AdminSessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := authenticator.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to authenticate admin session",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return session
}

// AdminSessionFromContext はリクエストコンテキストから管理者セッションを取得する。
func AdminSessionFromContext(ctx context.Context) (*model.AdminSession, bool) {
	session, ok := ctx.Value(adminSessionContextKey).(*model.AdminSession)
	return session, ok && session != nil
}

// ContextWithAdminSession はコンテキストに管理者セッションを注入する。
// テストやミドルウェア以外のコンテキスト生成でも使用する。
func ContextWithAdminSession(ctx context.Context, session *model.AdminSession) context.Context {
	markAdmin(ctx)
	return context.WithValue(ctx, adminSessionContextKey, session)
}
