package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/feedbackhub/pkg/middleware"
)

// userResponse はユーザーアカウントのJSONレスポンス構造。
// パスワードハッシュはレスポンスに含めない。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Name は表示名。
	Name string `json:"name"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
}

// handleListUsers はユーザーアカウント一覧を返すハンドラを返す。
func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.store.ListUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー一覧の取得に失敗しました"})
			log.Printf("[Account] 一覧取得エラー: %v", err)
			return
		}

		items := make([]userResponse, 0, len(users))
		for _, u := range users {
			items = append(items, userResponse{
				ID:        u.ID,
				Email:     u.Email,
				Name:      u.Name,
				CreatedAt: u.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, items)
	}
}

// handleMe は認証済み本人の情報を返すハンドラを返す。
// 認証ゲートが確立したSecurityContextをそのまま返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := middleware.SecurityContextFrom(c)
		if !ok {
			// RequireAuthenticatedの後段なので通常は到達しない
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"email":       sc.Email,
			"role":        sc.Role,
			"authorities": sc.Authorities,
		})
	}
}
