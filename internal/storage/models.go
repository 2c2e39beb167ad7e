package storage

// User はアカウントを表すレコードです。
// ハッシュ化済みパスワードはAPIレスポンスに含めません。
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	HashedPassword string `gorm:"not null" json:"-"`
}

// TableName は User の格納先テーブル名を返します。
func (User) TableName() string { return "users" }

// Task はToDo項目を表すレコードです。
// 削除は物理削除ではなく deleted フラグによる論理削除です。
type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"index" json:"description"`
	Done        bool   `gorm:"not null;default:false" json:"done"`
	Deleted     bool   `gorm:"not null;default:false" json:"deleted"`
	UserID      uint   `gorm:"index;not null" json:"user_id"`
}

// TableName は Task の格納先テーブル名を返します。
func (Task) TableName() string { return "tasks" }
