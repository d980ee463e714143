package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

// TestCreateFeedback はフィードバック投稿エンドポイントを検証する。
func TestCreateFeedback(t *testing.T) {
	t.Parallel()

	t.Run("認証なしでフィードバックを投稿できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "UI改善")

		w := doRequest(router, http.MethodPost, "/api/feedback", "", map[string]any{
			"email":       "submitter@example.com",
			"category_id": categoryID,
			"rating":      4,
			"comment":     "使いやすくなりました",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}
		body := parseJSON(t, w)
		if body["status"] != "open" {
			t.Errorf("status = %v, want %q", body["status"], "open")
		}
	})

	t.Run("存在しないカテゴリへの投稿は400になること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestServer(t)
		w := doRequest(router, http.MethodPost, "/api/feedback", "", map[string]any{
			"email":       "submitter@example.com",
			"category_id": "no-such-category",
			"rating":      3,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("評価が範囲外の場合400になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "範囲チェック")

		for _, rating := range []int{0, 6, -1} {
			w := doRequest(router, http.MethodPost, "/api/feedback", "", map[string]any{
				"email":       "submitter@example.com",
				"category_id": categoryID,
				"rating":      rating,
			})
			if w.Code != http.StatusBadRequest {
				t.Errorf("rating=%d: ステータスコード = %d, want %d", rating, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestListFeedbackByUser は投稿者別一覧エンドポイントを検証する。
func TestListFeedbackByUser(t *testing.T) {
	t.Parallel()

	t.Run("投稿者のフィードバックのみ返ること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "投稿者別")
		createTestFeedback(t, s, "alice@example.com", categoryID, 5, "open")
		createTestFeedback(t, s, "alice@example.com", categoryID, 3, "resolved")
		createTestFeedback(t, s, "bob@example.com", categoryID, 1, "open")

		w := doRequest(router, http.MethodGet, "/api/feedback/user/alice@example.com", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		items := parseJSONArray(t, w)
		if len(items) != 2 {
			t.Fatalf("件数 = %d, want 2", len(items))
		}
		for _, item := range items {
			if item["email"] != "alice@example.com" {
				t.Errorf("email = %v, want %q", item["email"], "alice@example.com")
			}
		}
	})

	t.Run("投稿がない場合は空配列が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestServer(t)
		w := doRequest(router, http.MethodGet, "/api/feedback/user/nobody@example.com", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if items := parseJSONArray(t, w); len(items) != 0 {
			t.Errorf("件数 = %d, want 0", len(items))
		}
	})
}

// TestListFeedback は一覧エンドポイントのページネーションと絞り込みを検証する。
func TestListFeedback(t *testing.T) {
	t.Parallel()

	t.Run("ページネーションが機能すること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "ページング")
		for i := 0; i < 25; i++ {
			createTestFeedback(t, s, fmt.Sprintf("user%02d@example.com", i), categoryID, 3, "open")
		}

		w := doRequest(router, http.MethodGet, "/api/feedback?page=1&page_size=10", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := parseJSON(t, w)
		if body["total"] != float64(25) {
			t.Errorf("total = %v, want 25", body["total"])
		}
		if items, _ := body["items"].([]any); len(items) != 10 {
			t.Errorf("1ページ目の件数 = %d, want 10", len(items))
		}

		w = doRequest(router, http.MethodGet, "/api/feedback?page=3&page_size=10", "", nil)
		body = parseJSON(t, w)
		if items, _ := body["items"].([]any); len(items) != 5 {
			t.Errorf("3ページ目の件数 = %d, want 5", len(items))
		}
	})

	t.Run("カテゴリと状況で絞り込めること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		uiID := createTestCategory(t, s, "UI")
		apiID := createTestCategory(t, s, "API")
		createTestFeedback(t, s, "a@example.com", uiID, 5, "open")
		createTestFeedback(t, s, "b@example.com", uiID, 2, "resolved")
		createTestFeedback(t, s, "c@example.com", apiID, 4, "open")

		w := doRequest(router, http.MethodGet, "/api/feedback?category_id="+uiID+"&status=open", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := parseJSON(t, w)
		if body["total"] != float64(1) {
			t.Errorf("total = %v, want 1", body["total"])
		}
	})

	t.Run("評価で絞り込めること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "評価絞り込み")
		createTestFeedback(t, s, "a@example.com", categoryID, 5, "open")
		createTestFeedback(t, s, "b@example.com", categoryID, 5, "open")
		createTestFeedback(t, s, "c@example.com", categoryID, 1, "open")

		w := doRequest(router, http.MethodGet, "/api/feedback?rating=5", "", nil)
		body := parseJSON(t, w)
		if body["total"] != float64(2) {
			t.Errorf("total = %v, want 2", body["total"])
		}
	})
}

// TestFeedbackAdminOperations は管理者専用のフィードバック操作を検証する。
// 認証ゲート→認可ミドルウェアの本番チェーンをそのまま通す。
func TestFeedbackAdminOperations(t *testing.T) {
	t.Parallel()

	t.Run("管理者はフィードバック詳細を取得できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "詳細")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodGet, "/api/feedback/"+id, tokenStr, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		body := parseJSON(t, w)
		if body["id"] != id {
			t.Errorf("id = %v, want %q", body["id"], id)
		}
	})

	t.Run("トークンなしでは401になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "認証なし")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")

		w := doRequest(router, http.MethodGet, "/api/feedback/"+id, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("一般ユーザーのトークンでは403になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "権限不足")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		tokenStr := userToken(t, s, "user@example.com")

		w := doRequest(router, http.MethodGet, "/api/feedback/"+id, tokenStr, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("不正なトークンでは401になり500にはならないこと", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "不正トークン")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")

		w := doRequest(router, http.MethodGet, "/api/feedback/"+id, "not-a-real-token", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("アカウント削除済みの正当なトークンでは401になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "削除済みアカウント")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		// 署名・期限ともに正当だが、どのディレクトリにも本人がいないトークン
		tokenStr := issueToken(t, "ghost@example.com")

		w := doRequest(router, http.MethodGet, "/api/feedback/"+id, tokenStr, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("管理者は対応状況を更新できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "状況更新")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPut, "/api/feedback/"+id, tokenStr, map[string]any{
			"status": "resolved",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		updated, err := s.store.GetFeedback(context.Background(), id)
		if err != nil {
			t.Fatalf("更新後の取得に失敗: %v", err)
		}
		if updated.Status != "resolved" {
			t.Errorf("Status = %q, want %q", updated.Status, "resolved")
		}
	})

	t.Run("不正な対応状況への更新は400になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "不正状況")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPut, "/api/feedback/"+id, tokenStr, map[string]any{
			"status": "deleted",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("管理者はフィードバックを削除できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		categoryID := createTestCategory(t, s, "削除")
		id := createTestFeedback(t, s, "a@example.com", categoryID, 4, "open")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodDelete, "/api/feedback/"+id, tokenStr, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}

		if _, err := s.store.GetFeedback(context.Background(), id); err == nil {
			t.Error("削除後もフィードバックが取得できる")
		}
	})

	t.Run("存在しないフィードバックの削除は404になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodDelete, "/api/feedback/no-such-id", tokenStr, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
