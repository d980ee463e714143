// Package migration はSQLiteデータベースのスキーママイグレーションを管理する。
//
// embed.FSに埋め込んだ「000001_説明.up.sql」形式のファイルをバージョン順に適用し、
// 適用状態はschema_migrationsテーブルで追跡する。適用済みバージョンは
// スキップされるため、サーバー起動時に毎回呼び出しても安全である。
package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
)

// upSuffix はマイグレーションファイル名の接尾辞。
const upSuffix = ".up.sql"

// migration は1つのマイグレーションファイルを表す。
type migration struct {
	// version はファイル名先頭の連番。
	version int
	// name はファイル名の説明部分。
	name string
	// path はfsys内のファイルパス。
	path string
}

// Run は未適用のマイグレーションをバージョン順にすべて適用する。
func Run(db *sql.DB, fsys fs.FS, dir string) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	pending, err := pendingMigrations(db, fsys, dir)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := apply(db, fsys, m); err != nil {
			return fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", m.version, m.name, err)
		}
		log.Printf("[Migration] %06d_%s を適用しました", m.version, m.name)
	}
	return nil
}

// pendingMigrations はディレクトリ内の未適用マイグレーションを
// バージョン昇順で返す。
func pendingMigrations(db *sql.DB, fsys fs.FS, dir string) ([]migration, error) {
	applied, err := appliedVersions(db)
	if err != nil {
		return nil, fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("マイグレーションディレクトリの読み込みに失敗: %w", err)
	}

	var pending []migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m, ok := parseFileName(entry.Name())
		if !ok || applied[m.version] {
			continue
		}
		m.path = dir + "/" + entry.Name()
		pending = append(pending, m)
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

// parseFileName は「000001_説明.up.sql」形式のファイル名を解析する。
// 形式に合わないファイルはok=falseで無視される。
func parseFileName(name string) (migration, bool) {
	base, ok := strings.CutSuffix(name, upSuffix)
	if !ok {
		return migration{}, false
	}
	numStr, desc, ok := strings.Cut(base, "_")
	if !ok {
		return migration{}, false
	}
	version, err := strconv.Atoi(numStr)
	if err != nil {
		return migration{}, false
	}
	return migration{version: version, name: desc}, true
}

// appliedVersions は適用済みのマイグレーションバージョンの集合を返す。
func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// apply は1つのマイグレーションをトランザクション内で適用し、
// 同じトランザクションでバージョンを記録する。
func apply(db *sql.DB, fsys fs.FS, m migration) error {
	content, err := fs.ReadFile(fsys, m.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
