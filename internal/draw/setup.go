package draw

import (
	"fmt"

	"github.com/google/logger"
	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移 draws 表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Draw{}); err != nil {
		return fmt.Errorf("cannot migrate draws table: %w", err)
	}
	logger.Info("draw: table migrated")
	return nil
}
