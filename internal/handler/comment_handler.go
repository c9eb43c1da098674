package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/travelblog/internal/comment"
	"github.com/hitoshi/travelblog/internal/middleware"
	"github.com/hitoshi/travelblog/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Submit(ctx context.Context, in comment.SubmitInput, meta comment.RequestMeta) (*comment.SubmitResult, error)
	List(ctx context.Context, postID string, status model.CommentStatus) ([]*model.Comment, error)
	ListForModeration(ctx context.Context, status model.CommentStatus, limit int) ([]*model.Comment, error)
	SetStatus(ctx context.Context, id string, status model.CommentStatus) (*model.Comment, error)
	SetStatusBulk(ctx context.Context, ids []string, status model.CommentStatus) (*comment.BulkResult, error)
	Delete(ctx context.Context, id string) error
}

// CommentHandler はコメント投稿とモデレーションのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// submitCommentRequest はコメント投稿リクエストのボディ。
type submitCommentRequest struct {
	Author struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"author"`
	Content       string `json:"content"`
	PostID        string `json:"postId"`
	ParentComment string `json:"parentComment,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type bulkStatusRequest struct {
	CommentIDs []string `json:"commentIds"`
	Status     string   `json:"status"`
}

// authorResponse はコメント投稿者のAPIレスポンス。
// メールアドレスは管理者向けレスポンスにのみ含める。
type authorResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// commentResponse はコメントのAPIレスポンス。IPアドレスとUser-Agentは含めない。
type commentResponse struct {
	ID            string         `json:"id"`
	PostID        string         `json:"postId"`
	ParentComment *string        `json:"parentComment,omitempty"`
	Author        authorResponse `json:"author"`
	Content       string         `json:"content"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Submit は新しいコメントを受け付ける。
// POST /api/comments
func (h *CommentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Submit(r.Context(), comment.SubmitInput{
		PostID:      req.PostID,
		ParentID:    req.ParentComment,
		AuthorName:  req.Author.Name,
		AuthorEmail: req.Author.Email,
		Content:     req.Content,
	}, comment.RequestMeta{
		IPAddress: middleware.ClientIPFromContext(r.Context()),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"comment": toCommentResponse(result.Comment, false),
		"message": result.Message,
	})
}

// List は記事のコメント一覧を返す。
// GET /api/comments?postId=...&status=...
// approved以外のステータスを指定できるのは管理者のみ。
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	status := model.CommentStatus(r.URL.Query().Get("status"))

	_, isAdmin := middleware.AdminSessionFromContext(r.Context())
	if status != "" && status != model.CommentStatusApproved && !isAdmin {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	comments, err := h.service.List(r.Context(), postID, status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": toCommentResponses(comments, isAdmin),
	})
}

// ListForModeration は管理画面のモデレーションキューを返す。
// GET /api/admin/comments?status=...&limit=...
func (h *CommentHandler) ListForModeration(w http.ResponseWriter, r *http.Request) {
	status := model.CommentStatus(r.URL.Query().Get("status"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	comments, err := h.service.ListForModeration(r.Context(), status, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": toCommentResponses(comments, true),
	})
}

// UpdateStatus はコメント1件のステータスを変更する。
// PATCH /api/comments/{id}/status
func (h *CommentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), model.CommentStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comment": toCommentResponse(c, true),
	})
}

// BulkUpdateStatus は複数コメントのステータスを一括変更する。
// PATCH /api/comments/bulk-status
func (h *CommentHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.SetStatusBulk(r.Context(), req.CommentIDs, model.CommentStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"updatedCount": result.UpdatedCount,
	})
}

// Delete はコメントを削除する。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toCommentResponse(c *model.Comment, includeEmail bool) commentResponse {
	res := commentResponse{
		ID:            c.ID,
		PostID:        c.PostID,
		ParentComment: c.ParentID,
		Author:        authorResponse{Name: c.AuthorName},
		Content:       c.Content,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if includeEmail {
		res.Author.Email = c.AuthorEmail
	}
	return res
}

func toCommentResponses(comments []*model.Comment, includeEmail bool) []commentResponse {
	res := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		res = append(res, toCommentResponse(c, includeEmail))
	}
	return res
}
