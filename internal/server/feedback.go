package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 一覧取得のページサイズ既定値と上限。
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// createFeedbackRequest はフィードバック投稿リクエストのJSON構造。
type createFeedbackRequest struct {
	// Email は投稿者のメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// CategoryID は所属カテゴリのID。
	CategoryID string `json:"category_id" binding:"required"`
	// Rating は評価（1〜5）。
	Rating int `json:"rating" binding:"required,min=1,max=5"`
	// Comment はコメント本文。
	Comment string `json:"comment"`
}

// updateFeedbackRequest は対応状況更新リクエストのJSON構造。
type updateFeedbackRequest struct {
	// Status は更新後の対応状況。
	Status string `json:"status" binding:"required,oneof=open in_progress resolved"`
}

// feedbackResponse はフィードバックのJSONレスポンス構造。
type feedbackResponse struct {
	// ID はフィードバックの一意識別子。
	ID string `json:"id"`
	// Email は投稿者のメールアドレス。
	Email string `json:"email"`
	// CategoryID は所属カテゴリのID。
	CategoryID string `json:"category_id"`
	// Rating は評価（1〜5）。
	Rating int `json:"rating"`
	// Comment はコメント本文。
	Comment string `json:"comment"`
	// Status は対応状況。
	Status string `json:"status"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toFeedbackResponse はストアのレコードをレスポンス構造に変換する。
func toFeedbackResponse(f Feedback) feedbackResponse {
	return feedbackResponse{
		ID:         f.ID,
		Email:      f.Email,
		CategoryID: f.CategoryID,
		Rating:     f.Rating,
		Comment:    f.Comment,
		Status:     f.Status,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// handleCreateFeedback はフィードバックを投稿するハンドラを返す。
// 認証不要の公開エンドポイント。
func (s *Server) handleCreateFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createFeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		// 存在しないカテゴリへの投稿は拒否する
		if _, err := s.store.GetCategory(c.Request.Context(), req.CategoryID); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "指定されたカテゴリが存在しません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリの確認に失敗しました"})
			log.Printf("[Feedback] カテゴリ確認エラー: %v", err)
			return
		}

		feedback := Feedback{
			ID:         uuid.New().String(),
			Email:      req.Email,
			CategoryID: req.CategoryID,
			Rating:     req.Rating,
			Comment:    req.Comment,
			Status:     "open",
		}
		if err := s.store.CreateFeedback(c.Request.Context(), feedback); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバックの登録に失敗しました"})
			log.Printf("[Feedback] 登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": feedback.ID, "status": feedback.Status})
	}
}

// handleListFeedback はフィードバックをページネーション付きで一覧するハンドラを返す。
// クエリパラメータ: page, page_size, category_id, status, rating。
func (s *Server) handleListFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := parsePositiveInt(c.Query("page"), 1)
		pageSize := parsePositiveInt(c.Query("page_size"), defaultPageSize)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		filter := FeedbackFilter{
			CategoryID: c.Query("category_id"),
			Status:     c.Query("status"),
			Rating:     parsePositiveInt(c.Query("rating"), 0),
		}

		total, err := s.store.CountFeedback(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバック数の取得に失敗しました"})
			log.Printf("[Feedback] 件数取得エラー: %v", err)
			return
		}

		feedbacks, err := s.store.ListFeedback(c.Request.Context(), filter, pageSize, (page-1)*pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバック一覧の取得に失敗しました"})
			log.Printf("[Feedback] 一覧取得エラー: %v", err)
			return
		}

		items := make([]feedbackResponse, 0, len(feedbacks))
		for _, f := range feedbacks {
			items = append(items, toFeedbackResponse(f))
		}

		c.JSON(http.StatusOK, gin.H{
			"items":     items,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

// handleListFeedbackByUser は投稿者別のフィードバック一覧を返すハンドラを返す。
// 認証不要の公開エンドポイント。
func (s *Server) handleListFeedbackByUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")

		feedbacks, err := s.store.ListFeedbackByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバック一覧の取得に失敗しました"})
			log.Printf("[Feedback] 投稿者別一覧取得エラー: %v", err)
			return
		}

		items := make([]feedbackResponse, 0, len(feedbacks))
		for _, f := range feedbacks {
			items = append(items, toFeedbackResponse(f))
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleGetFeedback はフィードバック詳細を返すハンドラを返す。
func (s *Server) handleGetFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		feedback, err := s.store.GetFeedback(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "フィードバックが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバックの取得に失敗しました"})
			log.Printf("[Feedback] 取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, toFeedbackResponse(*feedback))
	}
}

// handleUpdateFeedback は対応状況を更新するハンドラを返す。
func (s *Server) handleUpdateFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateFeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		id := c.Param("id")
		if err := s.store.UpdateFeedbackStatus(c.Request.Context(), id, req.Status); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "フィードバックが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバックの更新に失敗しました"})
			log.Printf("[Feedback] 更新エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
	}
}

// handleDeleteFeedback はフィードバックを削除するハンドラを返す。
func (s *Server) handleDeleteFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.DeleteFeedback(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "フィードバックが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "フィードバックの削除に失敗しました"})
			log.Printf("[Feedback] 削除エラー: %v", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// parsePositiveInt は文字列を正の整数として解釈する。
// 解釈できない場合・正でない場合はデフォルト値を返す。
func parsePositiveInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
