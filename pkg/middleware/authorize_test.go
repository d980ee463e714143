package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// withContext は指定されたSecurityContextを無条件でインストールする
// テスト用ミドルウェアを返す。
func withContext(email, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		installSecurityContext(c, newSecurityContext(email, role))
		c.Next()
	}
}

// doAuthorized はミドルウェアチェーン越しに1リクエストを実行する。
func doAuthorized(middlewares ...gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	handlers := append(middlewares, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/protected", handlers...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRequireRole はRequireRoleミドルウェアを検証する。
func TestRequireRole(t *testing.T) {
	t.Parallel()

	t.Run("必要なロールを持つ場合リクエストが成功すること", func(t *testing.T) {
		t.Parallel()

		w := doAuthorized(withContext("a@x.com", RoleAdmin), RequireRole(RoleAdmin))
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("コンテキストがない場合401が返ること", func(t *testing.T) {
		t.Parallel()

		w := doAuthorized(RequireRole(RoleAdmin))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("ロールが不足している場合403が返ること", func(t *testing.T) {
		t.Parallel()

		w := doAuthorized(withContext("u@x.com", RoleUser), RequireRole(RoleAdmin))
		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

// TestRequireAuthenticated はRequireAuthenticatedミドルウェアを検証する。
func TestRequireAuthenticated(t *testing.T) {
	t.Parallel()

	t.Run("いずれかのロールで認証済みなら成功すること", func(t *testing.T) {
		t.Parallel()

		for _, role := range []string{RoleAdmin, RoleUser} {
			w := doAuthorized(withContext("x@x.com", role), RequireAuthenticated())
			if w.Code != http.StatusOK {
				t.Errorf("role=%s: ステータスコード = %d, want %d", role, w.Code, http.StatusOK)
			}
		}
	})

	t.Run("匿名リクエストには401が返ること", func(t *testing.T) {
		t.Parallel()

		w := doAuthorized(RequireAuthenticated())
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
