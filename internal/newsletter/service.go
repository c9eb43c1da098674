// Package newsletter はニュースレター購読登録を提供する。
package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/repository"
	"github.com/hitoshi/travelblog/internal/validation"
)

// DefaultLocale は言語が指定されない場合の既定値。
const DefaultLocale = "pl"

var supportedLocales = map[string]bool{"pl": true, "en": true}

// Result は購読登録の結果。
type Result struct {
	Subscribed bool // 新規登録の場合true、既に登録済みの場合false
	Message    string
}

// Service はニュースレターのサービス層。
type Service struct {
	repo repository.NewsletterRepository
	now  func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.NewsletterRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Subscribe はメールアドレスを購読者として登録する。
// 登録済みのアドレスでもエラーにはしない（登録有無を外部に漏らさない）。
func (s *Service) Subscribe(ctx context.Context, email, locale string) (*Result, error) {
	if res := validation.ValidateEmail(email); !res.Valid {
		return nil, model.NewValidationError(res.Error)
	}
	if !supportedLocales[locale] {
		locale = DefaultLocale
	}

	subscriber := &model.NewsletterSubscriber{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Locale:    locale,
		CreatedAt: s.now(),
	}

	created, err := s.repo.Subscribe(ctx, subscriber)
	if err != nil {
		return nil, fmt.Errorf("購読登録に失敗しました: %w", err)
	}

	if created {
		slog.Info("newsletter subscriber added", slog.String("locale", locale))
	}
	return &Result{
		Subscribed: created,
		Message:    "Dziękujemy za zapisanie się do newslettera!",
	}, nil
}
