package startup

import (
	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/metadata"
	"github.com/SlpAus/lotto-mirror-backend/internal/ticket"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/google/logger"
	"gorm.io/gorm"
)

// InitializeApplication 是应用启动时执行的总入口，负责所有模块的表结构迁移。
func InitializeApplication(db *gorm.DB) error {
	logger.Info("startup: migrating mirror store...")

	for _, prime := range []func(*gorm.DB) error{
		metadata.PrimeDB,
		user.PrimeDB,
		draw.PrimeDB,
		ticket.PrimeDB,
	} {
		if err := prime(db); err != nil {
			return err
		}
	}

	logger.Info("startup: mirror store ready")
	return nil
}
