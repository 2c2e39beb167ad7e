package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-forge/internal/auth"
	"github.com/yourusername/task-forge/internal/storage"
)

const (
	defaultSkip  = 0
	defaultLimit = 10
)

// TaskStore はタスク操作を提供するストアが実装します。
type TaskStore interface {
	CreateMany(ctx context.Context, ownerID uint, inputs []TaskCreate) ([]storage.Task, error)
	List(ctx context.Context, ownerID uint, skip, limit int, done *bool) (int64, []storage.Task, error)
	Get(ctx context.Context, ownerID, taskID uint) (*storage.Task, error)
	Update(ctx context.Context, ownerID, taskID uint, input TaskUpdate) (*storage.Task, error)
	SoftDelete(ctx context.Context, ownerID, taskID uint) error
}

// RegisterRoutes はタスクAPIのルートを登録します。
// グループには事前に認証ミドルウェアが適用されている前提です。
func RegisterRoutes(group *gin.RouterGroup, store TaskStore) {
	group.POST("", CreateHandler(store))
	group.GET("", ListHandler(store))
	group.GET("/:id", GetHandler(store))
	group.PUT("/:id", UpdateHandler(store))
	group.DELETE("/:id", DeleteHandler(store))
}

// CreateHandler は POST /tasks のハンドラーを返します。
// リクエストボディはタスクの配列で、1リクエストで複数件を作成できます。
func CreateHandler(store TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			respondMissingPrincipal(c)
			return
		}

		var inputs []TaskCreate
		if err := c.ShouldBindJSON(&inputs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "タスクの配列を JSON で送ってください（title は必須）",
			})
			return
		}

		tasks, err := store.CreateMany(c.Request.Context(), user.ID, inputs)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, tasks)
	}
}

// ListHandler は GET /tasks のハンドラーを返します。
// クエリは skip（既定0）・limit（既定10）・done（既定false）。
func ListHandler(store TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			respondMissingPrincipal(c)
			return
		}

		skip, err := queryInt(c, "skip", defaultSkip)
		if err != nil {
			respondWithError(c, err)
			return
		}
		limit, err := queryInt(c, "limit", defaultLimit)
		if err != nil {
			respondWithError(c, err)
			return
		}

		// done 未指定は false 扱い（未完了のみ返す既存挙動を踏襲）
		done := false
		if raw, exists := c.GetQuery("done"); exists {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				respondWithError(c, fmt.Errorf("%w: done must be a boolean", ErrValidation))
				return
			}
			done = parsed
		}

		total, items, err := store.List(c.Request.Context(), user.ID, skip, limit, &done)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, PaginatedResponse[storage.Task]{
			Total: total,
			Items: items,
		})
	}
}

// GetHandler は GET /tasks/:id のハンドラーを返します。
func GetHandler(store TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			respondMissingPrincipal(c)
			return
		}

		taskID, err := pathTaskID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		task, err := store.Get(c.Request.Context(), user.ID, taskID)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

// UpdateHandler は PUT /tasks/:id のハンドラーを返します。
// ボディに含まれるフィールドだけを更新します。
func UpdateHandler(store TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			respondMissingPrincipal(c)
			return
		}

		taskID, err := pathTaskID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		var input TaskUpdate
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "description / done を JSON で送ってください",
			})
			return
		}

		task, err := store.Update(c.Request.Context(), user.ID, taskID, input)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

// DeleteHandler は DELETE /tasks/:id のハンドラーを返します。
// 論理削除のためレコードは残りますが、以後のAPIからは見えなくなります。
func DeleteHandler(store TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			respondMissingPrincipal(c)
			return
		}

		taskID, err := pathTaskID(c)
		if err != nil {
			respondWithError(c, err)
			return
		}

		if err := store.SoftDelete(c.Request.Context(), user.ID, taskID); err != nil {
			respondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Task %d deleted successfully", taskID),
		})
	}
}

func pathTaskID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: task id must be a positive integer", ErrValidation)
	}
	return uint(id), nil
}

func queryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw, exists := c.GetQuery(name)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrValidation, name)
	}
	return value, nil
}

func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "TASK_NOT_FOUND",
			"message": "Task not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました",
		})
	}
}

func respondMissingPrincipal(c *gin.Context) {
	// 認証ミドルウェアを通っていればここには来ない
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "有効なアクセストークンが必要です",
	})
}
