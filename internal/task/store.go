// Package task は認証済みユーザー自身のToDo項目に対するCRUDとページングを提供します。
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/task-forge/internal/storage"
)

var (
	// ErrNotFound はタスクが見つからないことを表します。
	// 他人のタスク・論理削除済みタスク・存在しないIDを区別しません
	// （ID総当たりで他ユーザーのタスクの有無を探れないようにするため）。
	ErrNotFound = errors.New("task not found")

	// ErrValidation は入力値の不正を表します。
	ErrValidation = errors.New("invalid task input")
)

// Store は所有者スコープ付きのタスク永続化層です。
// すべての操作は owner のIDと deleted = false で絞り込まれます。
type Store struct {
	db *gorm.DB
}

// NewStore はタスクストアを作成します。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateMany は複数のタスクを一括作成します。
// 所有者は引数の ownerID で強制的に決まります。空の入力は空の結果を返します。
func (s *Store) CreateMany(ctx context.Context, ownerID uint, inputs []TaskCreate) ([]storage.Task, error) {
	if len(inputs) == 0 {
		return []storage.Task{}, nil
	}

	tasks := make([]storage.Task, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.Title) == "" {
			return nil, fmt.Errorf("%w: title is required (index %d)", ErrValidation, i)
		}
		tasks = append(tasks, storage.Task{
			Title:       input.Title,
			Description: input.Description,
			Done:        input.Done,
			UserID:      ownerID,
		})
	}

	// スライスへのCreateは1トランザクションでまとめてINSERTされる
	if err := s.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// List は所有タスクをID昇順でページングして返します。
// total はページ窓と独立に数えた総件数です。done が nil の場合は完了状態で絞り込みません。
// limit が 0 の場合は items を返さず total のみ数えます。
func (s *Store) List(ctx context.Context, ownerID uint, skip, limit int, done *bool) (int64, []storage.Task, error) {
	if skip < 0 || limit < 0 {
		return 0, nil, fmt.Errorf("%w: skip and limit must be >= 0", ErrValidation)
	}

	var total int64
	items := []storage.Task{}

	// 件数とページは同一トランザクション内で読み、並行する書き込みとの不整合を避ける
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		filter := func() *gorm.DB {
			q := tx.Model(&storage.Task{}).
				Where("user_id = ? AND deleted = ?", ownerID, false)
			if done != nil {
				q = q.Where("done = ?", *done)
			}
			return q
		}

		if err := filter().Count(&total).Error; err != nil {
			return err
		}
		if limit == 0 {
			return nil
		}
		return filter().Order("id").Offset(skip).Limit(limit).Find(&items).Error
	})
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// Get は所有する未削除タスクを1件取得します。
func (s *Store) Get(ctx context.Context, ownerID, taskID uint) (*storage.Task, error) {
	var task storage.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND deleted = ?", taskID, ownerID, false).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Update は指定されたフィールドのみを更新し、更新後のタスクを返します。
func (s *Store) Update(ctx context.Context, ownerID, taskID uint, input TaskUpdate) (*storage.Task, error) {
	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Done != nil {
		updates["done"] = *input.Done
	}

	var task storage.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ? AND user_id = ? AND deleted = ?", taskID, ownerID, false).
			First(&task).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&task).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// SoftDelete はタスクに deleted フラグを立てます。
// 復元操作は存在せず、一度削除したタスクは以後どの操作からも見えません。
func (s *Store) SoftDelete(ctx context.Context, ownerID, taskID uint) error {
	result := s.db.WithContext(ctx).
		Model(&storage.Task{}).
		Where("id = ? AND user_id = ? AND deleted = ?", taskID, ownerID, false).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
