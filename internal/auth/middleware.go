package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-forge/internal/storage"
)

// ContextUserKey は、ハンドラー間で認証済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// RequireAuth は Authorization: Bearer ヘッダーを検証するミドルウェアを返します。
// トークン不正・期限切れ・ユーザー不在はすべて同じ 401 に畳み込みます。
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		subject, err := m.tokens.Verify(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		var user storage.User
		if err := m.db.WithContext(c.Request.Context()).
			Where("username = ?", subject).
			First(&user).Error; err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextUserKey, &user)
		c.Next()
	}
}

// CurrentUser はコンテキストから認証済みユーザーを取り出します。
func CurrentUser(c *gin.Context) (*storage.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*storage.User)
	return user, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "有効なアクセストークンが必要です",
	})
}
