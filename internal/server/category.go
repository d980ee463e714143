package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// categoryRequest はカテゴリ作成・更新リクエストのJSON構造。
type categoryRequest struct {
	// Name はカテゴリ名。
	Name string `json:"name" binding:"required"`
	// Description はカテゴリの説明。
	Description string `json:"description"`
}

// categoryResponse はカテゴリのJSONレスポンス構造。
type categoryResponse struct {
	// ID はカテゴリの一意識別子。
	ID string `json:"id"`
	// Name はカテゴリ名。
	Name string `json:"name"`
	// Description はカテゴリの説明。
	Description string `json:"description"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toCategoryResponse はストアのレコードをレスポンス構造に変換する。
func toCategoryResponse(c Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// handleListCategories はカテゴリ一覧を返すハンドラを返す。
func (s *Server) handleListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.store.ListCategories(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリ一覧の取得に失敗しました"})
			log.Printf("[Category] 一覧取得エラー: %v", err)
			return
		}

		items := make([]categoryResponse, 0, len(categories))
		for _, cat := range categories {
			items = append(items, toCategoryResponse(cat))
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleCreateCategory はカテゴリを作成するハンドラを返す。
func (s *Server) handleCreateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		exists, err := s.store.CategoryExistsByName(c.Request.Context(), req.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリの確認に失敗しました"})
			log.Printf("[Category] 確認エラー: %v", err)
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "同名のカテゴリが既に存在します"})
			return
		}

		category := Category{
			ID:          uuid.New().String(),
			Name:        req.Name,
			Description: req.Description,
		}
		if err := s.store.CreateCategory(c.Request.Context(), category); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリの作成に失敗しました"})
			log.Printf("[Category] 作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":          category.ID,
			"name":        category.Name,
			"description": category.Description,
		})
	}
}

// handleUpdateCategory はカテゴリを更新するハンドラを返す。
func (s *Server) handleUpdateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		category := Category{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
		}
		if err := s.store.UpdateCategory(c.Request.Context(), category); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリの更新に失敗しました"})
			log.Printf("[Category] 更新エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":          category.ID,
			"name":        category.Name,
			"description": category.Description,
		})
	}
}

// handleDeleteCategory はカテゴリを削除するハンドラを返す。
// フィードバックから参照されているカテゴリは削除できない。
func (s *Server) handleDeleteCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		count, err := s.store.CountFeedbackByCategory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリ参照の確認に失敗しました"})
			log.Printf("[Category] 参照確認エラー: %v", err)
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "フィードバックが紐づいているカテゴリは削除できません"})
			return
		}

		if err := s.store.DeleteCategory(c.Request.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "カテゴリが見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カテゴリの削除に失敗しました"})
			log.Printf("[Category] 削除エラー: %v", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
