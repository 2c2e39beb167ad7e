// Package auth は登録・ログイン・トークン検証などの認証機能を提供します。
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/task-forge/internal/config"
	"github.com/yourusername/task-forge/internal/storage"
)

// dummyHash はユーザーが存在しない場合のログイン照合に使うダミーのbcryptハッシュです。
// 実在ユーザーとの応答時間差からユーザー名の有無を推測されないようにします。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Manager は認証処理と依存をまとめた構造体です。
type Manager struct {
	cfg    *config.Config
	db     *gorm.DB
	tokens *TokenService
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, db *gorm.DB) *Manager {
	return &Manager{
		cfg:    cfg,
		db:     db,
		tokens: NewTokenService(cfg.JWTSecret, cfg.TokenTTL()),
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register は POST /auth/register のハンドラーです。
// ユーザー名が既に使われている場合は 400 を返します（大文字小文字は区別）。
func (m *Manager) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を JSON で送ってください",
		})
		return
	}

	hash, err := HashPassword(req.Password, m.cfg.BcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "パスワードの処理に失敗しました",
		})
		return
	}

	user := storage.User{
		Username:       req.Username,
		HashedPassword: hash,
	}

	// INSERT一発で登録する。同名ユーザーの同時登録はusernameの
	// 一意インデックスが弾くため、事前SELECTとの間のレースは起きない。
	if err := m.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "USERNAME_TAKEN",
				"message": "このユーザー名は既に登録されています",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "ユーザーの登録に失敗しました",
		})
		return
	}

	// パスワード関連のフィールドは返さない
	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login は POST /auth/login のハンドラーです。
// ユーザー名不明とパスワード不一致は同じ 401 を返し、どちらが誤りかを明かしません。
func (m *Manager) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を JSON で送ってください",
		})
		return
	}

	var user storage.User
	err := m.db.WithContext(c.Request.Context()).
		Where("username = ?", req.Username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ユーザーが居なくてもbcrypt照合を走らせて応答時間を揃える
			VerifyPassword(req.Password, dummyHash)
			respondInvalidCredentials(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "ログイン処理に失敗しました",
		})
		return
	}

	if !VerifyPassword(req.Password, user.HashedPassword) {
		respondInvalidCredentials(c)
		return
	}

	token, err := m.tokens.Issue(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "トークンの発行に失敗しました",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func respondInvalidCredentials(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    "INVALID_CREDENTIALS",
		"message": "ユーザー名またはパスワードが正しくありません",
	})
}
