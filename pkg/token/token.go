// Package token はJWTベアラートークンの発行と検証を提供する。
//
// loginエンドポイントがトークンを発行し、認証ゲートがVerifier経由で
// トークンの妥当性確認とメールアドレスの抽出を行う。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はJWTトークンのクレーム（ペイロード）を表す。
// 呼び出し元の識別にはメールアドレスのみを使用する。
// ロールはトークンに埋め込まず、リクエストごとにディレクトリ照会で解決する。
type Claims struct {
	jwt.RegisteredClaims
	// Email は認証済みアカウントのメールアドレス。
	Email string `json:"email"`
}

// expiry はトークンの有効期間。
const expiry = 24 * time.Hour

// issuer はトークンの発行者名。
const issuer = "feedbackhub"

// Generate はメールアドレスからJWTトークンを生成する。
// loginエンドポイントが認証成功後に呼び出す。
func Generate(secret, email string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verifier はHS256署名のJWTトークンを検証する。
// 認証ゲートが要求するクレデンシャル検証インターフェースを満たす。
type Verifier struct {
	// secret はJWT署名用の秘密鍵。
	secret string
}

// NewVerifier は新しいVerifierを生成する。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// ExtractEmail はトークンからメールアドレスを抽出する。
// 署名・有効期限の検証に失敗した場合はエラーを返す。
func (v *Verifier) ExtractEmail(tokenStr string) (string, error) {
	claims, err := v.parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// IsValid はトークンが署名・有効期限ともに妥当かを判定する。
func (v *Verifier) IsValid(tokenStr string) (bool, error) {
	if _, err := v.parse(tokenStr); err != nil {
		return false, err
	}
	return true, nil
}

// parse はトークンをパースし、検証済みのクレームを返す。
func (v *Verifier) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(v.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("トークンが無効")
	}
	return claims, nil
}
