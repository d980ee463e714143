// Package pathmatch はリクエストパスと公開エンドポイントパターンの照合を提供する。
//
// パターンは完全一致と末尾ワイルドカード（/**）の2種類のみをサポートする。
// 認証ゲートが公開ルートの判定に使用するため、純粋関数として実装し
// 単体でテスト可能にしている。
package pathmatch

import "strings"

// wildcardSuffix は任意のサフィックスにマッチする末尾ワイルドカード。
const wildcardSuffix = "/**"

// Match はパスがパターンにマッチするかを判定する。
//
// パターンが "/**" で終わる場合、その手前までのプレフィックス自体と、
// プレフィックス配下の任意の深さのパスにマッチする。
// それ以外のパターンは完全一致のみ。
//
//	Match("/api/feedback/user/**", "/api/feedback/user/a@x.com") // true
//	Match("/api/feedback/user/**", "/api/feedback/user")         // true
//	Match("/api/feedback", "/api/feedback/123")                  // false
func Match(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, wildcardSuffix); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return pattern == path
}

// MatchAny はパターンリストを設定順に走査し、いずれかにマッチするかを判定する。
// 最初にマッチした時点で走査を打ち切る（first-match-wins）。
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if Match(p, path) {
			return true
		}
	}
	return false
}
