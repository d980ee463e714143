package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/feedbackhub/pkg/middleware"
	"github.com/nao1215/feedbackhub/pkg/token"
)

// registerRequest はアカウント登録リクエストのJSON構造。
// 管理者登録とユーザー登録で共通。
type registerRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Password はパスワード（平文はここ以外に現れない）。
	Password string `json:"password" binding:"required,min=8"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Password はパスワード。
	Password string `json:"password" binding:"required"`
}

// handleAdminRegister は管理者アカウントを登録するハンドラを返す。
func (s *Server) handleAdminRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		exists, err := s.store.AdminExists(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "管理者の確認に失敗しました"})
			log.Printf("[Auth] 管理者確認エラー: %v", err)
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの処理に失敗しました"})
			return
		}

		admin := Admin{
			ID:           uuid.New().String(),
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         req.Name,
		}
		if err := s.store.CreateAdmin(c.Request.Context(), admin); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "管理者の登録に失敗しました"})
			log.Printf("[Auth] 管理者登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
			"role":  middleware.RoleAdmin,
		})
	}
}

// handleUserRegister はユーザーアカウントを登録するハンドラを返す。
func (s *Server) handleUserRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		exists, err := s.store.UserExists(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの確認に失敗しました"})
			log.Printf("[Auth] ユーザー確認エラー: %v", err)
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの処理に失敗しました"})
			return
		}

		user := User{
			ID:           uuid.New().String(),
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         req.Name,
		}
		if err := s.store.CreateUser(c.Request.Context(), user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			log.Printf("[Auth] ユーザー登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  middleware.RoleUser,
		})
	}
}

// handleLogin はログインしてJWTトークンを発行するハンドラを返す。
//
// 認証ゲートのロール解決と同じく管理者テーブルを先に照合する。
// 両方のテーブルに同じメールアドレスが存在する場合は管理者として扱う。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエスト形式が不正です"})
			return
		}

		hash, role, err := s.lookupCredential(c, req.Email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログイン処理に失敗しました"})
			log.Printf("[Auth] ログインエラー: %v", err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		tokenStr, err := token.Generate(s.jwtSecret, req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			log.Printf("[Auth] JWT生成エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": tokenStr,
			"email": req.Email,
			"role":  role,
		})
	}
}

// lookupCredential はメールアドレスからパスワードハッシュとロールを取得する。
// 管理者優先。どちらにも存在しない場合はErrNotFoundを返す。
func (s *Server) lookupCredential(c *gin.Context, email string) (hash, role string, err error) {
	admin, err := s.store.FindAdminByEmail(c.Request.Context(), email)
	if err == nil {
		return admin.PasswordHash, middleware.RoleAdmin, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", "", err
	}

	user, err := s.store.FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		return "", "", err
	}
	return user.PasswordHash, middleware.RoleUser, nil
}

// handleInit は初期管理者を作成するハンドラを返す。
//
// 管理者が1人も存在しない場合のみ、環境変数（ADMIN_EMAIL / ADMIN_PASSWORD /
// ADMIN_NAME）から管理者を作成する。既に管理者がいる場合は何もしない。
// 冪等であるため、デプロイ後のセットアップスクリプトから繰り返し呼び出せる。
func (s *Server) handleInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := s.store.CountAdmins(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "管理者数の確認に失敗しました"})
			log.Printf("[Auth] 初期化エラー: %v", err)
			return
		}
		if count > 0 {
			c.JSON(http.StatusOK, gin.H{"created": false})
			return
		}

		email := getEnvOr("ADMIN_EMAIL", "admin@example.com")
		password := getEnvOr("ADMIN_PASSWORD", "changeme-admin")
		name := getEnvOr("ADMIN_NAME", "初期管理者")

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの処理に失敗しました"})
			return
		}

		admin := Admin{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: string(hash),
			Name:         name,
		}
		if err := s.store.CreateAdmin(c.Request.Context(), admin); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "初期管理者の作成に失敗しました"})
			log.Printf("[Auth] 初期管理者作成エラー: %v", err)
			return
		}

		log.Printf("[Auth] 初期管理者を作成しました: %s", email)
		c.JSON(http.StatusCreated, gin.H{"created": true, "email": email})
	}
}
