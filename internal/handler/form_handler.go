package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/travelblog/internal/contact"
	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/model"
	"github.com/hitoshi/travelblog/internal/newsletter"
)

// NewsletterServiceInterface はニュースレター登録に必要なサービスインターフェース。
type NewsletterServiceInterface interface {
	Subscribe(ctx context.Context, email, locale string) (*newsletter.Result, error)
}

// ContactServiceInterface はお問い合わせ受付に必要なサービスインターフェース。
type ContactServiceInterface interface {
	Send(ctx context.Context, in contact.Input, meta contact.RequestMeta) (*model.ContactMessage, error)
}

// FormHandler は公開サイトのフォーム（ニュースレター、お問い合わせ）のHTTPハンドラー。
type FormHandler struct {
	newsletter NewsletterServiceInterface
	contact    ContactServiceInterface
}

// NewFormHandler はFormHandlerを生成する。
func NewFormHandler(newsletter NewsletterServiceInterface, contact ContactServiceInterface) *FormHandler {
	return &FormHandler{
		newsletter: newsletter,
		contact:    contact,
	}
}

type newsletterRequest struct {
	Email  string `json:"email"`
	Locale string `json:"locale"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Subscribe はニュースレターの購読登録を受け付ける。
// 既に登録済みでも同じレスポンスを返す。
// POST /api/newsletter
func (h *FormHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.newsletter.Subscribe(r.Context(), req.Email, req.Locale)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
	})
}

// Contact はお問い合わせフォームの送信を受け付ける。
// POST /api/contact
func (h *FormHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.contact.Send(r.Context(), contact.Input{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}, contact.RequestMeta{
		IPAddress: middleware.ClientIPFromContext(r.Context()),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Wiadomość została wysłana. Odpowiemy najszybciej, jak to możliwe.",
	})
}
