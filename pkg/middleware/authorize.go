package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole は指定ロールの権限を要求する認可ミドルウェアを返す。
//
// 認証ゲートの後段に配置する。SecurityContextが存在しない匿名リクエストは
// 401を返す。トークンなし・不正トークン・失効トークンはゲートですべて
// 「コンテキスト未設定」に縮退しているため、ここでは区別なく401になる。
// コンテキストは存在するが必要な権限を持たない場合は403を返す。
func RequireRole(role string) gin.HandlerFunc {
	authority := authorityPrefix + role
	return func(c *gin.Context) {
		sc, ok := SecurityContextFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "認証が必要です",
			})
			return
		}
		if !sc.HasAuthority(authority) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "この操作を行う権限がありません",
			})
			return
		}
		c.Next()
	}
}

// RequireAuthenticated はロールを問わず認証済みであることを要求する
// 認可ミドルウェアを返す。
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SecurityContextFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "認証が必要です",
			})
			return
		}
		c.Next()
	}
}
