// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/task-forge/internal/auth"
	"github.com/yourusername/task-forge/internal/config"
	"github.com/yourusername/task-forge/internal/storage"
	"github.com/yourusername/task-forge/internal/task"
)

const requestIDHeader = "X-Request-Id"

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 開発モードで秘密鍵が未設定の場合は警告付きのダミー鍵で起動する
	// （releaseモードでは config.Validate が起動を止める）
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set; using an insecure development secret")
		cfg.JWTSecret = "insecure-dev-secret"
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// データベースへの接続とマイグレーション
	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(requestID())

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization", // Bearerトークン用ヘッダー
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, cfg, db)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase は設定に応じたデータベースへ接続します。
// DSN未指定のローカル開発ではファイルベースのSQLiteを使います。
func connectDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL is not set; falling back to local SQLite (task-forge.db)")
		return storage.ConnectSQLite("task-forge.db")
	}
	return storage.Connect(cfg.DatabaseURL)
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "task-forge-api",
		"version": "0.1.0",
	})
}

// setupRoutes は認証とタスクAPIの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager := auth.NewManager(cfg, db)
	store := task.NewStore(db)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authManager.Register)
		authRoutes.POST("/login", authManager.Login)
	}

	// タスクAPIはすべてBearerトークン必須
	tasks := router.Group("/tasks")
	tasks.Use(authManager.RequireAuth())
	task.RegisterRoutes(tasks, store)
}

// requestID は各リクエストに一意のIDを割り当てるミドルウェアです。
// クライアントが X-Request-Id を送ってきた場合はそれを引き継ぎます。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
