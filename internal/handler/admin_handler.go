package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/model"
)

// AdminAuthServiceInterface は管理者認証ハンドラーが必要とするサービスインターフェース。
type AdminAuthServiceInterface interface {
	Login(ctx context.Context, password string) (*model.AdminSession, error)
	Logout(ctx context.Context, sessionID string) error
	SignSessionID(sessionID string) string
}

// AdminHandlerConfig は管理者認証ハンドラーの設定。
type AdminHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AdminHandler は管理者のログイン・ログアウトのHTTPハンドラー。
type AdminHandler struct {
	service      AdminAuthServiceInterface
	config       AdminHandlerConfig
	newCSRFToken func() (string, error)
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminAuthServiceInterface, config AdminHandlerConfig) *AdminHandler {
	return &AdminHandler{
		service:      service,
		config:       config,
		newCSRFToken: middleware.NewCSRFToken,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login はパスワードを検証し、セッションCookieとCSRFトークンCookieを発行する。
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// 1. CSRFトークンを先に生成する。失敗時はセッションもCookieも作らない
	token, err := h.newCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	session, err := h.service.Login(r.Context(), req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// 2. セッションCookieを設定（HTTP Only、署名付き）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminSessionCookieName,
		Value:    h.service.SignSessionID(session.ID),
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	// 3. ログイン直後の変更操作に備えてCSRFトークンCookieを設定
	middleware.SetCSRFCookie(w, token, middleware.CSRFConfig{
		CookieSecure: h.config.CookieSecure,
		CookieDomain: h.config.CookieDomain,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"csrfToken": token,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout はセッションを破棄してCookieをクリアする。
// POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.AdminSessionFromContext(r.Context()); ok {
		if err := h.service.Logout(r.Context(), session.ID); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminSessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me は管理者セッションが有効かどうかを返す。
// 無効な場合はミドルウェアが401を返し、管理画面はログイン画面へ遷移する。
// GET /api/admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.AdminSessionFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"expiresAt":     session.ExpiresAt,
	})
}
