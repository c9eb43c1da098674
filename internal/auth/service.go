// Package auth は管理者のログインとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	PasswordHash  string // 管理者パスワードのbcryptハッシュ
	SessionSecret string // セッションCookie署名用の秘密鍵
	SessionMaxAge int    // セッション有効期間（秒）
}

// Service は管理者認証に関するビジネスロジックを提供する。
// 管理者は単一のパスワードで認証する。
type Service struct {
	sessionRepo repository.AdminSessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(sessionRepo repository.AdminSessionRepository, config ServiceConfig) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// Login はパスワードを検証し、新しいセッションを発行する。
// パスワードが一致しない場合はUNAUTHORIZEDを返す。
func (s *Service) Login(ctx context.Context, password string) (*model.AdminSession, error) {
	if password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	err := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		slog.Warn("admin login failed")
		return nil, model.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify admin password: %w", err)
	}

	session, err := s.createSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("admin logged in", slog.String("session_id", session.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("admin logged out", slog.String("session_id", sessionID))
	return nil
}

// Authenticate は署名付きCookie値を検証し、有効なセッションを返す。
// 署名不正、期限切れ、未登録の場合はnilを返す。
func (s *Service) Authenticate(ctx context.Context, cookieValue string) (*model.AdminSession, error) {
	sessionID, ok := s.VerifySessionID(cookieValue)
	if !ok {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// SignSessionID はセッションIDに署名してCookie値を生成する。
// 形式: <sessionID>.<hex(HMAC-SHA256(secret, sessionID))>
func (s *Service) SignSessionID(sessionID string) string {
	return sessionID + "." + s.signature(sessionID)
}

// VerifySessionID はCookie値の署名を検証し、セッションIDを返す。
func (s *Service) VerifySessionID(value string) (string, bool) {
	sessionID, sig, ok := strings.Cut(value, ".")
	if !ok || sessionID == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.signature(sessionID))) {
		return "", false
	}
	return sessionID, true
}

func (s *Service) signature(sessionID string) string {
	mac := hmac.New(sha256.New, []byte(s.config.SessionSecret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context) (*model.AdminSession, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.AdminSession{
		ID:        sessionID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
