package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/feedbackhub/pkg/pathmatch"
)

// TokenVerifier は認証ゲートが消費するクレデンシャル検証のインターフェース。
// pkg/tokenのVerifierが実装する。
type TokenVerifier interface {
	// ExtractEmail はトークンからメールアドレスを抽出する。
	ExtractEmail(token string) (string, error)
	// IsValid はトークンが署名・有効期限ともに妥当かを判定する。
	IsValid(token string) (bool, error)
}

// Directory はメールアドレスに対するアカウントの存在確認を行う
// アイデンティティディレクトリのインターフェース。
// 管理者テーブル・ユーザーテーブルそれぞれの照会に使用する。
type Directory interface {
	// Exists はメールアドレスに対応するアカウントが存在するかを返す。
	Exists(ctx context.Context, email string) (bool, error)
}

// DirectoryFunc は関数をDirectoryとして使用するためのアダプタ。
type DirectoryFunc func(ctx context.Context, email string) (bool, error)

// Exists はf(ctx, email)を呼び出す。
func (f DirectoryFunc) Exists(ctx context.Context, email string) (bool, error) {
	return f(ctx, email)
}

// resolution はトークン1つに対するロール解決の結果を列挙する。
//
// ADMIN/USER/UNKNOWN/INVALIDの4値を明示的に区別する。UNKNOWNは
// 「トークンは正当だが本人がどちらのディレクトリにも存在しない」
// 状態であり、INVALIDとは運用上の意味が異なる（失効済みクレデンシャルの
// 検出シグナルになる）ため、二値に畳み込んではならない。
type resolution int

const (
	// resolutionAdmin は管理者ディレクトリで本人確認できた状態。
	resolutionAdmin resolution = iota
	// resolutionUser はユーザーディレクトリで本人確認できた状態。
	resolutionUser
	// resolutionUnknown はトークンは正当だが本人がどちらの
	// ディレクトリにも存在しない状態。
	resolutionUnknown
	// resolutionInvalid はトークンの検証失敗またはディレクトリ照会の失敗。
	resolutionInvalid
)

// AuthGate はすべてのリクエストを検査する認証ゲートミドルウェアを返す。
//
// 公開ルートにマッチしたリクエストはクレデンシャル処理を一切行わず転送する。
// それ以外はAuthorizationヘッダーのBearerトークンを検証し、管理者→ユーザーの
// 優先順でディレクトリを照会してロールを解決し、成功時のみSecurityContextを
// インストールする。
//
// このミドルウェアはいかなる場合もリクエストを遮断しない。トークン検証・
// ディレクトリ照会で発生したエラーはすべてここで握りつぶし、ログに残した上で
// 「コンテキスト未設定」として後続へ転送する。保護されたルートへの匿名
// アクセスの拒否は後段のRequireRoleの責務である。
func AuthGate(verifier TokenVerifier, admins, users Directory, publicPaths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// 公開ルートはクレデンシャル処理をスキップして即座に転送する
		if pathmatch.MatchAny(publicPaths, path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			// ヘッダーなしは匿名リクエストとして転送する。エラーではない。
			c.Next()
			return
		}

		email, result := containedResolveRole(c.Request.Context(), verifier, admins, users, tokenStr)
		switch result {
		case resolutionAdmin:
			installSecurityContext(c, newSecurityContext(email, RoleAdmin))
		case resolutionUser:
			installSecurityContext(c, newSecurityContext(email, RoleUser))
		case resolutionUnknown:
			// 署名・期限は正当なのにアカウントが見つからない。
			// 削除済みアカウントの失効トークンを示唆するため警告として記録する。
			log.Printf("[AuthGate] warn: どのディレクトリにも存在しないユーザー: %s", email)
		case resolutionInvalid:
			// resolveRole側でログ済み。コンテキストを設定せず転送する。
		}

		c.Next()
	}
}

// containedResolveRole はresolveRoleをパニック封じ込め付きで呼び出す。
//
// クレデンシャル処理の障害がサービス障害（500）になることは許されない。
// 検証器やディレクトリ実装のバグによるパニックもここで回収し、
// resolutionInvalidに縮退させてリクエストを生かしたまま転送させる。
func containedResolveRole(ctx context.Context, verifier TokenVerifier, admins, users Directory, tokenStr string) (email string, result resolution) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[AuthGate] クレデンシャル処理中にパニック: %v", r)
			email, result = "", resolutionInvalid
		}
	}()
	return resolveRole(ctx, verifier, admins, users, tokenStr)
}

// resolveRole はトークンからメールアドレスを抽出し、ディレクトリ照会で
// ロールを解決する。
//
// 照会順序は管理者→ユーザーで固定であり、管理者ディレクトリに存在する
// メールアドレスは両方に存在してもADMINとして解決される（管理者優先は絶対）。
// 途中で発生したエラーはすべてresolutionInvalidに畳み込み、呼び出し元へ
// 伝播させない。
func resolveRole(ctx context.Context, verifier TokenVerifier, admins, users Directory, tokenStr string) (string, resolution) {
	email, err := verifier.ExtractEmail(tokenStr)
	if err != nil {
		log.Printf("[AuthGate] トークンからのメールアドレス抽出に失敗: %v", err)
		return "", resolutionInvalid
	}
	if email == "" {
		log.Printf("[AuthGate] トークンにメールアドレスが含まれていない")
		return "", resolutionInvalid
	}

	valid, err := verifier.IsValid(tokenStr)
	if err != nil {
		log.Printf("[AuthGate] トークンの検証に失敗: %v", err)
		return "", resolutionInvalid
	}
	if !valid {
		log.Printf("[AuthGate] トークンが無効と判定された: %s", email)
		return "", resolutionInvalid
	}

	// 管理者ディレクトリを先に照会する。存在すればユーザーディレクトリは見ない。
	isAdmin, err := admins.Exists(ctx, email)
	if err != nil {
		log.Printf("[AuthGate] 管理者ディレクトリの照会に失敗: %v", err)
		return "", resolutionInvalid
	}
	if isAdmin {
		return email, resolutionAdmin
	}

	isUser, err := users.Exists(ctx, email)
	if err != nil {
		log.Printf("[AuthGate] ユーザーディレクトリの照会に失敗: %v", err)
		return "", resolutionInvalid
	}
	if isUser {
		return email, resolutionUser
	}

	return email, resolutionUnknown
}
