package metadata

import "gorm.io/gorm"

// Metadata 定义了存储系统元数据的键值对表结构
type Metadata struct {
	gorm.Model

	// Key 是元数据的唯一键，例如 "last_announced_draw_id"
	Key string `gorm:"uniqueIndex;not null;type:varchar(255)"`

	Value string `gorm:"type:varchar(255)"`
}

// These keys are used for the 'key' column of the metadata table.
const (
	// LastAnnouncedDrawIDKey stores the external id of the last draw whose
	// winning numbers were announced by the draw sync worker.
	LastAnnouncedDrawIDKey = "last_announced_draw_id"

	// LastDrawSyncAtKey stores the RFC3339 time of the last successful draw sync.
	LastDrawSyncAtKey = "last_draw_sync_at"
)
