package user

import (
	"fmt"

	"github.com/google/logger"
	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移 users 表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("cannot migrate users table: %w", err)
	}
	logger.Info("user: table migrated")
	return nil
}
