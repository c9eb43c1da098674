// Package contact はお問い合わせフォームの受付を提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/repository"
	"github.com/hitoshi/travelblog/internal/validation"
)

// メッセージ本文の文字数制限（サニタイズ後）
const (
	MinMessageLength = 10
	MaxMessageLength = 5000
)

// Input はお問い合わせフォームの入力。
type Input struct {
	Name    string `validate:"required"`
	Email   string `validate:"required"`
	Subject string `validate:"max=200"`
	Message string `validate:"required"`
}

// RequestMeta はリクエスト元の情報。
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Service はお問い合わせのサービス層。
type Service struct {
	repo     repository.ContactRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ContactRepository) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// Send は入力を検証してメッセージを保存する。
func (s *Service) Send(ctx context.Context, in Input, meta RequestMeta) (*model.ContactMessage, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, model.NewValidationError(validationMessage(err))
	}
	if !validation.ValidateName(in.Name) {
		return nil, model.NewValidationError("Imię musi mieć od 2 do 100 znaków")
	}
	if res := validation.ValidateEmail(in.Email); !res.Valid {
		return nil, model.NewValidationError(res.Error)
	}

	body := validation.SanitizeComment(in.Message)
	switch n := validation.RuneLen(body); {
	case n < MinMessageLength:
		return nil, model.NewValidationError(fmt.Sprintf("Wiadomość musi mieć co najmniej %d znaków", MinMessageLength))
	case n > MaxMessageLength:
		return nil, model.NewValidationError(fmt.Sprintf("Wiadomość może mieć maksymalnie %d znaków", MaxMessageLength))
	}

	msg := &model.ContactMessage{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Subject:   validation.SanitizeComment(in.Subject),
		Message:   body,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("お問い合わせの保存に失敗しました: %w", err)
	}

	slog.Info("contact message received", slog.String("message_id", msg.ID))
	return msg, nil
}

// validationMessage はvalidatorのエラーをユーザー向けメッセージに変換する。
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		if errs[0].Field() == "Subject" {
			return "Temat może mieć maksymalnie 200 znaków"
		}
	}
	return "Wszystkie wymagane pola muszą być wypełnione"
}
