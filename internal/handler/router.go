package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/ratelimit"
)

// AuthServiceInterface は管理者ログインとセッション解決の両方を提供するサービス。
// auth.Serviceが実装する。
type AuthServiceInterface interface {
	AdminAuthServiceInterface
	middleware.SessionAuthenticator
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	HTTPRecorder      middleware.HTTPRecorder // nil可
	CORSAllowedOrigin string
	TrustProxyHeaders bool
	Throttle          *middleware.Throttle // nil可。/api全体のIP単位制限
	RateLimiter       middleware.WindowChecker

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nil可

	// 管理者認証
	AuthService AuthServiceInterface
	AdminConfig AdminHandlerConfig

	// ドメイン
	CommentService    CommentServiceInterface
	NewsletterService NewsletterServiceInterface
	ContactService    ContactServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → ClientIP → Logging → SecurityHeaders → CORS → Throttle(/apiのみ)
//
// 管理者向けの変更系ルートはさらに AdminSession → CSRF の順に検証する。
// コメント投稿のレート制限はコメントサービス内で判定する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewClientIPMiddleware(deps.TrustProxyHeaders))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.HTTPRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	commentHandler := NewCommentHandler(deps.CommentService)
	adminHandler := NewAdminHandler(deps.AuthService, deps.AdminConfig)
	formHandler := NewFormHandler(deps.NewsletterService, deps.ContactService)

	requireAdmin := middleware.NewAdminSessionMiddleware(deps.AuthService)
	optionalAdmin := middleware.NewOptionalAdminSessionMiddleware(deps.AuthService)
	csrf := middleware.NewCSRFMiddleware()
	windowLimit := func(category string, cfg ratelimit.Config) func(http.Handler) http.Handler {
		return middleware.NewFixedWindowMiddleware(deps.RateLimiter, category, cfg)
	}

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.Throttle != nil {
			r.Use(deps.Throttle.Middleware())
		}

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(middleware.CSRFConfig{
			CookieSecure: deps.AdminConfig.CookieSecure,
			CookieDomain: deps.AdminConfig.CookieDomain,
		}))

		// コメント
		r.Route("/comments", func(r chi.Router) {
			r.With(optionalAdmin).Get("/", commentHandler.List)
			r.Post("/", commentHandler.Submit)

			// モデレーション: AdminSession → CSRF
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin, csrf)
				r.Patch("/bulk-status", commentHandler.BulkUpdateStatus)
				r.Patch("/{id}/status", commentHandler.UpdateStatus)
				r.Delete("/{id}", commentHandler.Delete)
			})
		})

		// 管理者
		r.Route("/admin", func(r chi.Router) {
			r.With(windowLimit(ratelimit.CategoryAuth, ratelimit.AuthConfig)).Post("/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/me", adminHandler.Me)
				r.Get("/comments", commentHandler.ListForModeration)
				r.With(csrf).Post("/logout", adminHandler.Logout)
			})
		})

		// 公開フォーム
		r.With(windowLimit(ratelimit.CategoryNewsletter, ratelimit.NewsletterConfig)).Post("/newsletter", formHandler.Subscribe)
		r.With(windowLimit(ratelimit.CategoryContact, ratelimit.ContactConfig)).Post("/contact", formHandler.Contact)
	})

	return r
}
