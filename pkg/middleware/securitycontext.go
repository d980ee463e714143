package middleware

import "github.com/gin-gonic/gin"

// ロール名。管理者はディレクトリ照会で常に優先される。
const (
	// RoleAdmin は管理者ロール。
	RoleAdmin = "ADMIN"
	// RoleUser は一般ユーザーロール。
	RoleUser = "USER"
)

// authorityPrefix はロール名から権限名を導出するプレフィックス。
const authorityPrefix = "ROLE_"

// securityContextKey はGinコンテキストにSecurityContextを格納するキー。
// パッケージ外から直接参照させず、アクセサ経由でのみ読み取らせる。
const securityContextKey = "feedbackhub/security-context"

// SecurityContext はリクエスト単位で解決された認証情報を表す不変値。
//
// 認証ゲートがロール解決に成功した場合にのみ、リクエストごとに最大1回
// インストールされる。Ginコンテキストはリクエストスコープであるため、
// 並行リクエスト間でコンテキストが漏れることはない。
// 生のパスワードやトークンは保持しない。
type SecurityContext struct {
	// Email は解決済みの呼び出し元メールアドレス。
	Email string
	// Role は解決済みロール（ADMINまたはUSER）。
	Role string
	// Authorities は付与された権限のリスト（"ROLE_" + ロール名）。
	Authorities []string
}

// newSecurityContext はロールから権限を導出してSecurityContextを構築する。
func newSecurityContext(email, role string) SecurityContext {
	return SecurityContext{
		Email:       email,
		Role:        role,
		Authorities: []string{authorityPrefix + role},
	}
}

// HasAuthority は指定された権限を保持しているかを判定する。
func (sc SecurityContext) HasAuthority(authority string) bool {
	for _, a := range sc.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// installSecurityContext はSecurityContextをリクエストのGinコンテキストに設定する。
func installSecurityContext(c *gin.Context, sc SecurityContext) {
	c.Set(securityContextKey, sc)
}

// SecurityContextFrom はリクエストのSecurityContextを取得する。
// 認証ゲートがコンテキストをインストールしていない場合（匿名リクエスト）は
// ok=falseを返す。
func SecurityContextFrom(c *gin.Context) (SecurityContext, bool) {
	v, exists := c.Get(securityContextKey)
	if !exists {
		return SecurityContext{}, false
	}
	sc, ok := v.(SecurityContext)
	return sc, ok
}
