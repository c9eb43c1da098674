package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/travelblog/internal/auth"
	"github.com/hitoshi/travelblog/internal/comment"
	"github.com/hitoshi/travelblog/internal/config"
	"github.com/hitoshi/travelblog/internal/contact"
	"github.com/hitoshi/travelblog/internal/database"
	"github.com/hitoshi/travelblog/internal/handler"
	"github.com/hitoshi/travelblog/internal/logger"
	"github.com/hitoshi/travelblog/internal/metrics"
	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/newsletter"
	"github.com/hitoshi/travelblog/internal/ratelimit"
	"github.com/hitoshi/travelblog/internal/repository"
	"github.com/hitoshi/travelblog/internal/worker/cleanup"
)

// cleanupInterval はクリーンアップジョブの実行間隔。
const cleanupInterval = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（LOG_LEVELもここで決まる）
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, ParseMigrateArgs(args))
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// server はHTTPハンドラーと、停止時に解放すべき資源をまとめたもの。
type server struct {
	handler http.Handler
	closers []func()
	backend string
}

// Close は生成順と逆順に資源を解放する。
func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServer は全依存関係をワイヤリングしてルーターを構築する。
func buildServer(cfg *config.Config, db *sql.DB, log *slog.Logger) (*server, error) {
	srv := &server{}

	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 2. レート制限ストア
	backend, err := newRateLimitBackend(cfg, log, collector)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, backend.Close)
	srv.backend = backend.backend
	limiter := ratelimit.NewLimiter(backend.store, log, collector)

	throttle := middleware.NewThrottle(middleware.ThrottlePerMinute(cfg.RateLimitGeneral))
	srv.closers = append(srv.closers, throttle.Stop)

	// 3. リポジトリの初期化
	postRepo := repository.NewCachedPostRepo(repository.NewPostgresPostRepo(db), cfg.PostCacheTTL)
	srv.closers = append(srv.closers, postRepo.Close)
	commentRepo := repository.NewPostgresCommentRepo(db)
	sessionRepo := repository.NewPostgresAdminSessionRepo(db)
	newsletterRepo := repository.NewPostgresNewsletterRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(sessionRepo, auth.ServiceConfig{
		PasswordHash:  cfg.AdminPasswordHash,
		SessionSecret: cfg.AdminSessionSecret,
		SessionMaxAge: cfg.SessionMaxAge,
	})
	commentService := comment.NewService(postRepo, commentRepo, limiter, collector, log)
	newsletterService := newsletter.NewService(newsletterRepo)
	contactService := contact.NewService(contactRepo)

	// 5. ルーターの構築
	srv.handler = handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		HTTPRecorder:      collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Throttle:          throttle,
		RateLimiter:       limiter,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		AuthService: authService,
		AdminConfig: handler.AdminHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		CommentService:    commentService,
		NewsletterService: newsletterService,
		ContactService:    contactService,
	})

	return srv, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	srv, err := buildServer(cfg, db, slog.Default())
	if err != nil {
		return err
	}
	defer srv.Close()

	slog.Info("rate limit store selected", slog.String("backend", srv.backend))

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、クリーンアップジョブを日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// ワーカーはHTTPを公開しないため、削除件数はログでのみ確認する
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), nil)
	cleanupJob.SpamRetentionDays = cfg.SpamRetentionDays

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cleanupInterval),
		slog.Int("spam_retention_days", cleanupJob.SpamRetentionDays),
	)

	cleanupJob.Schedule(ctx, cleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 既定では未適用マイグレーションをすべて適用し、downの場合は指定ステップ分巻き戻す。
func runMigrate(cfg *config.Config, args MigrateArgs) error {
	if args.Down {
		slog.Info("rolling back database migrations",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
			slog.Int("steps", args.Steps),
		)
		if err := database.RollbackMigrations(cfg.DatabaseURL, args.Steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migrations rolled back successfully")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
