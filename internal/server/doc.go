// Package server はフィードバック管理バックエンドのHTTPサーバーを提供する。
//
// 認証エンドポイント（管理者/ユーザー登録、ログイン、初期化）、
// フィードバックCRUDとページネーション・絞り込み、カテゴリCRUD、
// アカウント照会を1つのGinサーバーとして公開する。
// すべてのリクエストは認証ゲート（pkg/middleware）を通過し、
// 管理者専用エンドポイントは後段のRequireRoleで保護される。
package server
