package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateDB handles all database migrations using the provided GORM DB instance.
// 返回错误以便调用者知道迁移是否成功；迁移失败是致命的启动错误，
// 调用方不得在未验证模式的情况下开始处理请求。
func MigrateDB(db *gorm.DB) error {
	// 检查 db 是否为 nil
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := createUsersTable(db); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// createUsersTable 发出单条幂等建表语句。
// 表已存在时该语句是空操作，因此每次启动都可以安全执行。
func createUsersTable(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if err := db.Exec(sql).Error; err != nil {
		logrus.Errorf("Failed to create users table: %v", err)
		return fmt.Errorf("failed to create users table: %w", err)
	}
	logrus.Info("Users table ready")
	return nil
}
