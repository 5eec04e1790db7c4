package ticket

import (
	"fmt"

	"github.com/google/logger"
	"gorm.io/gorm"
)

// PrimeDB 负责自动迁移 tickets 表结构
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Ticket{}); err != nil {
		return fmt.Errorf("cannot migrate tickets table: %w", err)
	}
	logger.Info("ticket: table migrated")
	return nil
}
