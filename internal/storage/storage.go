// Package storage はデータベース接続とテーブル定義を提供します。
package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect は PostgreSQL に接続します。
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// ConnectSQLite はローカル開発・テスト用に SQLite へ接続します。
func ConnectSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	return db, nil
}

// Migrate は users / tasks テーブルを作成します。
// username の一意インデックスが重複登録の最終的な防波堤になります。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Task{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// 一意制約違反などをドライバ非依存のエラーへ変換する
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}
