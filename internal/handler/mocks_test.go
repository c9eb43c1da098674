package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/travelblog/internal/comment"
	"github.com/hitoshi/travelblog/internal/contact"
	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/newsletter"
	"github.com/hitoshi/travelblog/internal/ratelimit"
)

// --- モック定義 ---

// mockCommentService はCommentServiceInterfaceのモック実装。
type mockCommentService struct {
	submitFn            func(ctx context.Context, in comment.SubmitInput, meta comment.RequestMeta) (*comment.SubmitResult, error)
	listFn              func(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error)
	listForModerationFn func(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error)
	setStatusFn         func(ctx context.Context, id string, status model.CommentStatus) (*model.Comment, error)
	setStatusBulkFn     func(ctx context.Context, ids []string, status model.CommentStatus) (*comment.BulkResult, error)
	deleteFn            func(ctx context.Context, id string) error
}

func (m *mockCommentService) Submit(ctx context.Context, in comment.SubmitInput, meta comment.RequestMeta) (*comment.SubmitResult, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, in, meta)
	}
	return nil, nil
}

func (m *mockCommentService) List(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, postID, status)
	}
	return nil, nil
}

func (m *mockCommentService) ListForModeration(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error) {
	if m.listForModerationFn != nil {
		return m.listForModerationFn(ctx, status, limit)
	}
	return nil, nil
}

func (m *mockCommentService) SetStatus(ctx context.Context, id string, status model.CommentStatus) (*model.Comment, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil, nil
}

func (m *mockCommentService) SetStatusBulk(ctx context.Context, ids []string, status model.CommentStatus) (*comment.BulkResult, error) {
	if m.setStatusBulkFn != nil {
		return m.setStatusBulkFn(ctx, ids, status)
	}
	return &comment.BulkResult{}, nil
}

func (m *mockCommentService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockAuthService はAuthServiceInterfaceのモック実装。
// "valid-cookie"のみを有効なセッションとして扱う。
type mockAuthService struct {
	loginFn  func(ctx context.Context, password string) (*model.AdminSession, error)
	logoutFn func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Login(ctx context.Context, password string) (*model.AdminSession, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, password)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) SignSessionID(sessionID string) string {
	return sessionID + ".signed"
}

func (m *mockAuthService) Authenticate(ctx context.Context, cookieValue string) (*model.AdminSession, error) {
	if cookieValue == "valid-cookie" {
		return &model.AdminSession{ID: "sess-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return nil, nil
}

type mockNewsletterService struct {
	subscribeFn func(ctx context.Context, email, locale string) (*newsletter.Result, error)
}

func (m *mockNewsletterService) Subscribe(ctx context.Context, email, locale string) (*newsletter.Result, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email, locale)
	}
	return &newsletter.Result{Subscribed: true, Message: "ok"}, nil
}

type mockContactService struct {
	sendFn func(ctx context.Context, in contact.Input, meta contact.RequestMeta) (*model.ContactMessage, error)
}

func (m *mockContactService) Send(ctx context.Context, in contact.Input, meta contact.RequestMeta) (*model.ContactMessage, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, in, meta)
	}
	return &model.ContactMessage{ID: "m-1"}, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// mockWindowChecker は常に指定された結果を返すWindowChecker。
type mockWindowChecker struct {
	deny  bool
	calls []string
}

func (m *mockWindowChecker) Check(ctx context.Context, identifier string, cfg ratelimit.Config) ratelimit.Result {
	m.calls = append(m.calls, identifier)
	if m.deny {
		return ratelimit.Result{Success: false, Limit: cfg.MaxRequests, Remaining: 0, Reset: time.Now().Add(30 * time.Second)}
	}
	return ratelimit.Result{Success: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests - 1, Reset: time.Now().Add(cfg.Window)}
}

func (m *mockWindowChecker) Now() time.Time {
	return time.Now()
}

// --- テストヘルパー ---

// withAdminSession はテスト用にリクエストコンテキストへ管理者セッションを注入する。
func withAdminSession(ctx context.Context) context.Context {
	return middleware.ContextWithAdminSession(ctx, &model.AdminSession{ID: "sess-1"})
}

// parseErrorBody はレスポンスボディから統一エラーフォーマットをパースする。
func parseErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func sampleComment(id string) *model.Comment {
	return &model.Comment{
		ID:          id,
		PostID:      "post-1",
		AuthorName:  "Anna",
		AuthorEmail: "anna@example.pl",
		Content:     "Piękne zdjęcia z Krakowa!",
		Status:      model.CommentStatusApproved,
		IPAddress:   "203.0.113.1",
		UserAgent:   "test-agent",
		CreatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
