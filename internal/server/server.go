package server

import (
	"database/sql"
	"embed"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/feedbackhub/pkg/middleware"
	"github.com/nao1215/feedbackhub/pkg/migration"
	"github.com/nao1215/feedbackhub/pkg/token"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// publicPaths は認証ゲートがクレデンシャル処理をスキップする公開ルート。
// 末尾の /** は配下の任意のパスにマッチする。
// 設定順に照合され、最初にマッチしたパターンで判定が確定する。
var publicPaths = []string{
	"/api/auth/admin/register",
	"/api/auth/user/register",
	"/api/auth/login",
	"/api/auth/init",
	"/api/feedback",
	"/api/feedback/user/**",
	"/v3/api-docs/**",
	"/swagger-ui/**",
	"/swagger-ui.html",
}

// Server はフィードバック管理バックエンドのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はSQLiteの永続化層。
	store *Store
	// db はSQLiteデータベース接続。
	db *sql.DB
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
}

// NewServer は新しいサーバーを生成する。
// SQLiteデータベースへの接続とマイグレーションの適用を行う。
func NewServer(port string) (*Server, error) {
	dbPath := getEnvOr("FEEDBACKHUB_DB", "/data/feedbackhub.db")
	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := migration.Run(sqlDB, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:    router,
		port:      port,
		store:     NewStore(sqlDB),
		db:        sqlDB,
		jwtSecret: jwtSecret,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
//
// 認証ゲートは全ルートに適用されるが、リクエストを遮断することはない。
// 管理者専用エンドポイントはルートごとのRequireRoleで保護する。
// 公開ルート（publicPaths）に載るエンドポイントにはRequireRoleを付けない。
func (s *Server) setupRoutes() {
	s.router.Use(middleware.AuthGate(
		token.NewVerifier(s.jwtSecret),
		middleware.DirectoryFunc(s.store.AdminExists),
		middleware.DirectoryFunc(s.store.UserExists),
		publicPaths,
	))

	api := s.router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			// 管理者登録（公開）
			auth.POST("/admin/register", s.handleAdminRegister())
			// ユーザー登録（公開）
			auth.POST("/user/register", s.handleUserRegister())
			// ログイン（公開）
			auth.POST("/login", s.handleLogin())
			// 初期管理者の作成（公開・冪等）
			auth.POST("/init", s.handleInit())
		}

		feedback := api.Group("/feedback")
		{
			// フィードバック投稿（公開）
			feedback.POST("", s.handleCreateFeedback())
			// フィードバック一覧（公開ルートのため認可なし）
			feedback.GET("", s.handleListFeedback())
			// 投稿者別フィードバック一覧（公開）
			feedback.GET("/user/:email", s.handleListFeedbackByUser())
			// フィードバック詳細（管理者のみ）
			feedback.GET("/:id", middleware.RequireRole(middleware.RoleAdmin), s.handleGetFeedback())
			// 対応状況の更新（管理者のみ）
			feedback.PUT("/:id", middleware.RequireRole(middleware.RoleAdmin), s.handleUpdateFeedback())
			// フィードバック削除（管理者のみ）
			feedback.DELETE("/:id", middleware.RequireRole(middleware.RoleAdmin), s.handleDeleteFeedback())
		}

		categories := api.Group("/categories")
		{
			// カテゴリ一覧（認証必須）
			categories.GET("", middleware.RequireAuthenticated(), s.handleListCategories())
			// カテゴリ作成（管理者のみ）
			categories.POST("", middleware.RequireRole(middleware.RoleAdmin), s.handleCreateCategory())
			// カテゴリ更新（管理者のみ）
			categories.PUT("/:id", middleware.RequireRole(middleware.RoleAdmin), s.handleUpdateCategory())
			// カテゴリ削除（管理者のみ）
			categories.DELETE("/:id", middleware.RequireRole(middleware.RoleAdmin), s.handleDeleteCategory())
		}

		// ユーザーアカウント一覧（管理者のみ）
		api.GET("/users", middleware.RequireRole(middleware.RoleAdmin), s.handleListUsers())
		// 認証済み本人の情報（認証必須）
		api.GET("/me", middleware.RequireAuthenticated(), s.handleMe())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "feedbackhub"})
	})
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
