package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Admin は管理者アカウントのレコード。
type Admin struct {
	// ID は管理者の一意識別子。
	ID string
	// Email はメールアドレス。
	Email string
	// PasswordHash はbcryptハッシュ済みパスワード。
	PasswordHash string
	// Name は表示名。
	Name string
	// CreatedAt は作成日時。
	CreatedAt string
}

// User は一般ユーザーアカウントのレコード。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// Email はメールアドレス。
	Email string
	// PasswordHash はbcryptハッシュ済みパスワード。
	PasswordHash string
	// Name は表示名。
	Name string
	// CreatedAt は作成日時。
	CreatedAt string
}

// Category はフィードバックカテゴリのレコード。
type Category struct {
	// ID はカテゴリの一意識別子。
	ID string
	// Name はカテゴリ名。
	Name string
	// Description はカテゴリの説明。
	Description string
	// CreatedAt は作成日時。
	CreatedAt string
	// UpdatedAt は更新日時。
	UpdatedAt string
}

// Feedback はフィードバックのレコード。
type Feedback struct {
	// ID はフィードバックの一意識別子。
	ID string
	// Email は投稿者のメールアドレス。
	Email string
	// CategoryID は所属カテゴリのID。
	CategoryID string
	// Rating は評価（1〜5）。
	Rating int
	// Comment はコメント本文。
	Comment string
	// Status は対応状況（open / in_progress / resolved）。
	Status string
	// CreatedAt は作成日時。
	CreatedAt string
	// UpdatedAt は更新日時。
	UpdatedAt string
}

// FeedbackFilter は管理者向けフィードバック一覧の絞り込み条件。
// ゼロ値のフィールドは条件に含めない。
type FeedbackFilter struct {
	// CategoryID はカテゴリIDでの絞り込み。
	CategoryID string
	// Status は対応状況での絞り込み。
	Status string
	// Rating は評価での絞り込み（0は未指定）。
	Rating int
}

// ErrNotFound は対象レコードが存在しないことを表す。
var ErrNotFound = errors.New("レコードが見つかりません")

// Store はSQLiteに対するクエリ実行をまとめた永続化層。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateAdmin は管理者アカウントを作成する。
func (s *Store) CreateAdmin(ctx context.Context, a Admin) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO admins (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
		a.ID, a.Email, a.PasswordHash, a.Name,
	)
	if err != nil {
		return fmt.Errorf("管理者の作成に失敗: %w", err)
	}
	return nil
}

// FindAdminByEmail はメールアドレスで管理者を検索する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*Admin, error) {
	var a Admin
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, name, created_at FROM admins WHERE email = ?",
		email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("管理者の検索に失敗: %w", err)
	}
	return &a, nil
}

// AdminExists はメールアドレスに対応する管理者が存在するかを返す。
// 認証ゲートの管理者ディレクトリ照会として使用される。
func (s *Store) AdminExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM admins WHERE email = ?", email,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("管理者ディレクトリの照会に失敗: %w", err)
	}
	return true, nil
}

// CountAdmins は管理者アカウントの総数を返す。
func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, fmt.Errorf("管理者数の取得に失敗: %w", err)
	}
	return count, nil
}

// CreateUser はユーザーアカウントを作成する。
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}
	return nil
}

// FindUserByEmail はメールアドレスでユーザーを検索する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	return &u, nil
}

// UserExists はメールアドレスに対応するユーザーが存在するかを返す。
// 認証ゲートのユーザーディレクトリ照会として使用される。
func (s *Store) UserExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email = ?", email,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ユーザーディレクトリの照会に失敗: %w", err)
	}
	return true, nil
}

// ListUsers はユーザーアカウントを作成日時の降順で返す。
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, password_hash, name, created_at FROM users ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateCategory はカテゴリを作成する。
func (s *Store) CreateCategory(ctx context.Context, c Category) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, description) VALUES (?, ?, ?)",
		c.ID, c.Name, c.Description,
	)
	if err != nil {
		return fmt.Errorf("カテゴリの作成に失敗: %w", err)
	}
	return nil
}

// GetCategory はIDでカテゴリを取得する。存在しない場合はErrNotFoundを返す。
func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗: %w", err)
	}
	return &c, nil
}

// CategoryExistsByName は同名カテゴリが存在するかを返す。
func (s *Store) CategoryExistsByName(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM categories WHERE name = ?", name,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("カテゴリ名の照会に失敗: %w", err)
	}
	return true, nil
}

// ListCategories はカテゴリを名前順で返す。
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("カテゴリ行の読み取りに失敗: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory はカテゴリの名前と説明を更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (s *Store) UpdateCategory(ctx context.Context, c Category) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, description = ?, updated_at = datetime('now') WHERE id = ?",
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return fmt.Errorf("カテゴリの更新に失敗: %w", err)
	}
	return ensureAffected(result)
}

// DeleteCategory はカテゴリを削除する。対象が存在しない場合はErrNotFoundを返す。
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗: %w", err)
	}
	return ensureAffected(result)
}

// CountFeedbackByCategory は指定カテゴリを参照するフィードバック数を返す。
// カテゴリ削除前の参照チェックに使用する。
func (s *Store) CountFeedbackByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM feedbacks WHERE category_id = ?", categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("カテゴリ参照数の取得に失敗: %w", err)
	}
	return count, nil
}

// CreateFeedback はフィードバックを作成する。
func (s *Store) CreateFeedback(ctx context.Context, f Feedback) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO feedbacks (id, email, category_id, rating, comment, status) VALUES (?, ?, ?, ?, ?, ?)",
		f.ID, f.Email, f.CategoryID, f.Rating, f.Comment, f.Status,
	)
	if err != nil {
		return fmt.Errorf("フィードバックの作成に失敗: %w", err)
	}
	return nil
}

// GetFeedback はIDでフィードバックを取得する。存在しない場合はErrNotFoundを返す。
func (s *Store) GetFeedback(ctx context.Context, id string) (*Feedback, error) {
	var f Feedback
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, category_id, rating, comment, status, created_at, updated_at FROM feedbacks WHERE id = ?",
		id,
	).Scan(&f.ID, &f.Email, &f.CategoryID, &f.Rating, &f.Comment, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("フィードバックの取得に失敗: %w", err)
	}
	return &f, nil
}

// ListFeedbackByEmail は投稿者のフィードバックを作成日時の降順で返す。
func (s *Store) ListFeedbackByEmail(ctx context.Context, email string) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, category_id, rating, comment, status, created_at, updated_at FROM feedbacks WHERE email = ? ORDER BY created_at DESC, id",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("フィードバック一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFeedbacks(rows)
}

// ListFeedback は絞り込み条件付きでフィードバックをページ取得する。
// offset/limitはハンドラ側でページ番号から算出する。
func (s *Store) ListFeedback(ctx context.Context, filter FeedbackFilter, limit, offset int) ([]Feedback, error) {
	where, args := filter.clauses()
	query := "SELECT id, email, category_id, rating, comment, status, created_at, updated_at FROM feedbacks" +
		where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("フィードバック一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFeedbacks(rows)
}

// CountFeedback は絞り込み条件に一致するフィードバックの総数を返す。
func (s *Store) CountFeedback(ctx context.Context, filter FeedbackFilter) (int, error) {
	where, args := filter.clauses()
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedbacks"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("フィードバック数の取得に失敗: %w", err)
	}
	return count, nil
}

// UpdateFeedbackStatus はフィードバックの対応状況を更新する。
// 対象が存在しない場合はErrNotFoundを返す。
func (s *Store) UpdateFeedbackStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE feedbacks SET status = ?, updated_at = datetime('now') WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("フィードバックの更新に失敗: %w", err)
	}
	return ensureAffected(result)
}

// DeleteFeedback はフィードバックを削除する。対象が存在しない場合はErrNotFoundを返す。
func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM feedbacks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("フィードバックの削除に失敗: %w", err)
	}
	return ensureAffected(result)
}

// clauses は絞り込み条件からWHERE句とバインド引数を組み立てる。
func (f FeedbackFilter) clauses() (string, []any) {
	var conditions []string
	var args []any
	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.Rating != 0 {
		conditions = append(conditions, "rating = ?")
		args = append(args, f.Rating)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}
	return where, args
}

// scanFeedbacks は結果セットをFeedbackスライスに読み取る。
func scanFeedbacks(rows *sql.Rows) ([]Feedback, error) {
	var feedbacks []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.Email, &f.CategoryID, &f.Rating, &f.Comment, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("フィードバック行の読み取りに失敗: %w", err)
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}

// ensureAffected は更新系クエリが1行以上に作用したことを確認する。
func ensureAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
