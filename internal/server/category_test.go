package server

import (
	"context"
	"net/http"
	"testing"
)

// TestListCategories はカテゴリ一覧エンドポイントを検証する。
func TestListCategories(t *testing.T) {
	t.Parallel()

	t.Run("認証済みユーザーはカテゴリ一覧を取得できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		createTestCategory(t, s, "UI")
		createTestCategory(t, s, "API")
		tokenStr := userToken(t, s, "user@example.com")

		w := doRequest(router, http.MethodGet, "/api/categories", tokenStr, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		items := parseJSONArray(t, w)
		if len(items) != 2 {
			t.Errorf("件数 = %d, want 2", len(items))
		}
	})

	t.Run("トークンなしでは401になること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestServer(t)
		w := doRequest(router, http.MethodGet, "/api/categories", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestCreateCategory はカテゴリ作成エンドポイントを検証する。
func TestCreateCategory(t *testing.T) {
	t.Parallel()

	t.Run("管理者はカテゴリを作成できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPost, "/api/categories", tokenStr, map[string]any{
			"name":        "パフォーマンス",
			"description": "速度に関するフィードバック",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}
		body := parseJSON(t, w)
		if body["name"] != "パフォーマンス" {
			t.Errorf("name = %v, want %q", body["name"], "パフォーマンス")
		}
	})

	t.Run("同名カテゴリの作成は409になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		createTestCategory(t, s, "重複")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPost, "/api/categories", tokenStr, map[string]any{
			"name": "重複",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("一般ユーザーによる作成は403になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		tokenStr := userToken(t, s, "user@example.com")

		w := doRequest(router, http.MethodPost, "/api/categories", tokenStr, map[string]any{
			"name": "権限なし",
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

// TestUpdateCategory はカテゴリ更新エンドポイントを検証する。
func TestUpdateCategory(t *testing.T) {
	t.Parallel()

	t.Run("管理者はカテゴリを更新できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		id := createTestCategory(t, s, "旧名称")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPut, "/api/categories/"+id, tokenStr, map[string]any{
			"name":        "新名称",
			"description": "更新後の説明",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		updated, err := s.store.GetCategory(context.Background(), id)
		if err != nil {
			t.Fatalf("更新後の取得に失敗: %v", err)
		}
		if updated.Name != "新名称" {
			t.Errorf("Name = %q, want %q", updated.Name, "新名称")
		}
	})

	t.Run("存在しないカテゴリの更新は404になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodPut, "/api/categories/no-such-id", tokenStr, map[string]any{
			"name": "存在しない",
		})
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestDeleteCategory はカテゴリ削除エンドポイントを検証する。
func TestDeleteCategory(t *testing.T) {
	t.Parallel()

	t.Run("参照されていないカテゴリを削除できること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		id := createTestCategory(t, s, "未参照")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodDelete, "/api/categories/"+id, tokenStr, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
	})

	t.Run("フィードバックが紐づくカテゴリの削除は409になること", func(t *testing.T) {
		t.Parallel()

		s, router := setupTestServer(t)
		id := createTestCategory(t, s, "参照あり")
		createTestFeedback(t, s, "a@example.com", id, 3, "open")
		tokenStr := adminToken(t, s, "admin@example.com")

		w := doRequest(router, http.MethodDelete, "/api/categories/"+id, tokenStr, nil)
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}

		// カテゴリが残っていること
		if _, err := s.store.GetCategory(context.Background(), id); err != nil {
			t.Errorf("参照ありカテゴリが削除されている: %v", err)
		}
	})
}
