// Package middleware はfeedbackhubのHTTP APIで使用するGinミドルウェアを提供する。
//
// 中核は認証ゲート（AuthGate）である。すべてのリクエストに対して
// Bearerトークンの検証と管理者→ユーザーの2段ディレクトリ照会によるロール解決を
// 行い、リクエストスコープのSecurityContextを確立する。ゲート自身は決して
// リクエストを遮断せず、保護ルートの拒否は後段の認可ミドルウェア
// （RequireRole / RequireAuthenticated）が担う。
//
// そのほかパニックリカバリとCORS設定を含む。
package middleware
