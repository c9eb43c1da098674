// Package comment はコメント投稿とモデレーションのドメインロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/ratelimit"
	"github.com/hitoshi/travelblog/internal/repository"
	"github.com/hitoshi/travelblog/internal/validation"
)

const (
	// MinContentLength はサニタイズ後のコメント最小文字数。
	MinContentLength = 10

	// FloodWindow はフラッド判定で遡る期間。
	FloodWindow = 5 * time.Minute
	// FloodThreshold はFloodWindow内に許容する同一IPからの既存コメント数。
	// これを超えると拒否する。
	FloodThreshold = 3
	// DuplicateWindow は同一内容の再投稿を拒否する期間。
	DuplicateWindow = 10 * time.Minute

	// DefaultModerationLimit は管理画面のモデレーションキューの既定件数。
	DefaultModerationLimit = 100
	// MaxModerationLimit はモデレーションキューの最大件数。
	MaxModerationLimit = 500
)

// ユーザー向けメッセージ
const (
	msgRequiredFields   = "Wszystkie wymagane pola muszą być wypełnione"
	msgNameLength       = "Imię musi mieć od 2 do 100 znaków"
	msgContentTooShort  = "Komentarz musi mieć co najmniej 10 znaków (po usunięciu HTML)"
	msgContentTooLong   = "Komentarz może mieć maksymalnie %d znaków"
	msgInvalidStatus    = "Nieprawidłowy status komentarza"
	msgEmptyIDs         = "Lista komentarzy nie może być pusta"
	msgPostIDRequired   = "Parametr postId jest wymagany"
	msgAwaitingApproval = "Komentarz został dodany i oczekuje na moderację"
	msgPublished        = "Komentarz został dodany"
)

// 投稿結果の種別（メトリクスのラベル）
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeRateLimit = "rate_limited"
	OutcomeFlood     = "flood"
	OutcomeDuplicate = "duplicate"
)

// RateLimiter はコメント投稿のレート制限を判定するインターフェース。
type RateLimiter interface {
	Check(ctx context.Context, identifier string, cfg ratelimit.Config) ratelimit.Result
}

// Recorder はコメントワークフローのメトリクスを記録するインターフェース。
type Recorder interface {
	RecordCommentSubmission(outcome string)
	RecordModeration(status string, count int)
}

// SubmitInput は公開フォームから送信されたコメント。
type SubmitInput struct {
	PostID      string `validate:"required"`
	ParentID    string
	AuthorName  string `validate:"required"`
	AuthorEmail string `validate:"required"`
	Content     string `validate:"required"`
}

// RequestMeta はリクエスト元の情報。コメントと共に保存されるが公開はされない。
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// SubmitResult は投稿成功時の結果。
type SubmitResult struct {
	Comment *model.Comment
	Message string
}

// Service はコメントワークフローのサービス層。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	limiter     RateLimiter
	recorder    Recorder
	logger      *slog.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	limiter RateLimiter,
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		limiter:     limiter,
		recorder:    recorder,
		logger:      logger,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Submit は公開フォームからのコメント投稿を検証して保存する。
// 検証は安価なものから順に行い、最初に失敗した時点で中断する。
func (s *Service) Submit(ctx context.Context, in SubmitInput, meta RequestMeta) (*SubmitResult, error) {
	now := s.now()

	// 1. レート制限
	rl := s.limiter.Check(ctx, ratelimit.Key(ratelimit.CategoryComment, meta.IPAddress), ratelimit.CommentsConfig)
	if !rl.Success {
		s.record(OutcomeRateLimit)
		return nil, model.NewRateLimitedError(rl.Limit, rl.RetryAfter(now))
	}

	// 2. 必須項目
	if err := s.validate.Struct(in); err != nil {
		s.record(OutcomeRejected)
		return nil, model.NewValidationError(msgRequiredFields)
	}

	// 3. 名前の長さ
	if !validation.ValidateName(in.AuthorName) {
		s.record(OutcomeRejected)
		return nil, model.NewValidationError(msgNameLength)
	}

	// 4. メールアドレス
	if res := validation.ValidateEmail(in.AuthorEmail); !res.Valid {
		s.record(OutcomeRejected)
		return nil, model.NewValidationError(res.Error)
	}

	// 5. サニタイズ
	content := validation.SanitizeComment(in.Content)
	if validation.RuneLen(content) < MinContentLength {
		s.record(OutcomeRejected)
		return nil, model.NewValidationError(msgContentTooShort)
	}

	// 6. 記事の存在確認
	post, err := s.postRepo.FindByID(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if post == nil {
		s.record(OutcomeRejected)
		return nil, model.NewPostNotFoundError(in.PostID)
	}

	// 7. 記事のコメント設定
	if !post.Comments.Enabled {
		s.record(OutcomeRejected)
		return nil, model.NewCommentsDisabledError()
	}
	var parentID *string
	if in.ParentID != "" {
		if !post.Comments.AllowReplies {
			s.record(OutcomeRejected)
			return nil, model.NewRepliesDisabledError()
		}
		pid, err := s.checkParent(ctx, in.ParentID, post.ID)
		if err != nil {
			s.record(OutcomeRejected)
			return nil, err
		}
		parentID = &pid
	}

	// 8. 記事ごとの最大文字数
	if maxLen := post.Comments.EffectiveMaxLength(); validation.RuneLen(content) > maxLen {
		s.record(OutcomeRejected)
		return nil, model.NewValidationError(fmt.Sprintf(msgContentTooLong, maxLen))
	}

	// 9. フラッド制御
	recent, err := s.commentRepo.CountByIPSince(ctx, meta.IPAddress, now.Add(-FloodWindow))
	if err != nil {
		return nil, fmt.Errorf("投稿数の確認に失敗しました: %w", err)
	}
	if recent > FloodThreshold {
		s.record(OutcomeFlood)
		s.logger.Warn("comment flood detected",
			slog.String("ip_address", meta.IPAddress),
			slog.Int("recent_count", recent),
		)
		return nil, model.NewTooManyRequestsError(int(FloodWindow.Seconds()))
	}

	// 10. 重複投稿
	dup, err := s.commentRepo.ExistsDuplicate(ctx, content, meta.IPAddress, now.Add(-DuplicateWindow))
	if err != nil {
		return nil, fmt.Errorf("重複投稿の確認に失敗しました: %w", err)
	}
	if dup {
		s.record(OutcomeDuplicate)
		return nil, model.NewDuplicateSubmissionError()
	}

	c := &model.Comment{
		ID:          uuid.New().String(),
		PostID:      post.ID,
		ParentID:    parentID,
		AuthorName:  strings.TrimSpace(in.AuthorName),
		AuthorEmail: strings.TrimSpace(in.AuthorEmail),
		Content:     content,
		Status:      post.Comments.InitialStatus(),
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの保存に失敗しました: %w", err)
	}

	s.record(OutcomeAccepted)
	s.logger.Info("comment submitted",
		slog.String("comment_id", c.ID),
		slog.String("post_id", c.PostID),
		slog.String("status", string(c.Status)),
	)

	msg := msgPublished
	if c.Status == model.CommentStatusPending {
		msg = msgAwaitingApproval
	}
	return &SubmitResult{Comment: c, Message: msg}, nil
}

// normalizeID はUUIDを小文字ハイフン区切りの正規形にする。
// 大文字、波括弧、urn:uuid:などの表記も同じIDとして扱う。
func normalizeID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// checkParent は返信先コメントが同じ記事に存在することを確認し、正規化したIDを返す。
func (s *Service) checkParent(ctx context.Context, parentID, postID string) (string, error) {
	id, ok := normalizeID(parentID)
	if !ok {
		return "", model.NewCommentNotFoundError(parentID)
	}
	parent, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("返信先コメントの取得に失敗しました: %w", err)
	}
	if parent == nil || parent.PostID != postID {
		return "", model.NewCommentNotFoundError(parentID)
	}
	return id, nil
}

// List は記事のコメントをステータスで絞り込み、作成日時の昇順で返す。
// statusが空の場合は承認済みのみを返す。
func (s *Service) List(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error) {
	if postID == "" {
		return nil, model.NewValidationError(msgPostIDRequired)
	}
	if status == "" {
		status = model.CommentStatusApproved
	}
	if !status.IsValid() {
		return nil, model.NewValidationError(msgInvalidStatus)
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID, status)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// ListForModeration は全記事を横断してステータス別のコメントを新しい順に返す。
// statusが空の場合は承認待ちを返す。
func (s *Service) ListForModeration(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error) {
	if status == "" {
		status = model.CommentStatusPending
	}
	if !status.IsValid() {
		return nil, model.NewValidationError(msgInvalidStatus)
	}
	if limit <= 0 {
		limit = DefaultModerationLimit
	}
	limit = min(limit, MaxModerationLimit)

	comments, err := s.commentRepo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("モデレーション対象の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// SetStatus はコメントのステータスを変更する。
// 4つのステータス間の遷移は制限しない。
func (s *Service) SetStatus(ctx context.Context, id string, status model.CommentStatus) (*model.Comment, error) {
	if !status.IsValid() {
		return nil, model.NewValidationError(msgInvalidStatus)
	}
	normalized, ok := normalizeID(id)
	if !ok {
		return nil, model.NewCommentNotFoundError(id)
	}
	id = normalized

	c, err := s.commentRepo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(id)
	}

	s.recordModeration(status, 1)
	s.logger.Info("comment status changed",
		slog.String("comment_id", id),
		slog.String("status", string(status)),
	)
	return c, nil
}

// BulkResult は一括ステータス変更の結果。
type BulkResult struct {
	UpdatedCount int
}

// SetStatusBulk は複数コメントのステータスを一括変更する。
// 1件でも存在しないIDが含まれる場合は何も変更せずにエラーを返す。
func (s *Service) SetStatusBulk(ctx context.Context, ids []string, status model.CommentStatus) (*BulkResult, error) {
	ids = lo.Compact(ids)
	if len(ids) == 0 {
		return nil, model.NewValidationError(msgEmptyIDs)
	}
	if !status.IsValid() {
		return nil, model.NewValidationError(msgInvalidStatus)
	}

	malformed := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := normalizeID(id)
		return !ok
	})
	if len(malformed) > 0 {
		return nil, model.NewCommentNotFoundError(lo.Uniq(malformed)...)
	}
	// 表記違いの同一IDは1件として扱う
	ids = lo.Uniq(lo.Map(ids, func(id string, _ int) string {
		normalized, _ := normalizeID(id)
		return normalized
	}))

	updated, missing, err := s.commentRepo.UpdateStatusBulk(ctx, ids, status, s.now())
	if err != nil {
		return nil, fmt.Errorf("ステータスの一括更新に失敗しました: %w", err)
	}
	if len(missing) > 0 {
		return nil, model.NewCommentNotFoundError(missing...)
	}

	s.recordModeration(status, updated)
	s.logger.Info("comment status changed in bulk",
		slog.Int("count", updated),
		slog.String("status", string(status)),
	)
	return &BulkResult{UpdatedCount: updated}, nil
}

// Delete はコメントを物理削除する。返信もCASCADEで削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	normalized, ok := normalizeID(id)
	if !ok {
		return model.NewCommentNotFoundError(id)
	}
	id = normalized

	deleted, err := s.commentRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCommentNotFoundError(id)
	}

	s.recordModeration("deleted", 1)
	s.logger.Info("comment deleted", slog.String("comment_id", id))
	return nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordCommentSubmission(outcome)
	}
}

func (s *Service) recordModeration(status model.CommentStatus, count int) {
	if s.recorder != nil {
		s.recorder.RecordModeration(string(status), count)
	}
}
