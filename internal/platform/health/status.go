package health

import (
	"context"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/metadata"
	"gorm.io/gorm"
)

// State 定义了系统健康状态的枚举类型
type State string

const (
	StateHealthy  State = "healthy"
	StateDegraded State = "degraded"
)

// Status is the snapshot served by the health endpoint.
type Status struct {
	State          State      `json:"state"`
	Database       bool       `json:"database"`
	Redis          bool       `json:"redis"`
	RedisRunID     string     `json:"redisRunId,omitempty"`
	LastDrawSyncAt *time.Time `json:"lastDrawSyncAt"`
}

// Report pings the database and combines it with the last redis observation.
// Either store being down degrades the service.
func Report(ctx context.Context, db *gorm.DB) Status {
	st := Status{
		Redis:      database.IsRedisHealthy(),
		RedisRunID: database.LastKnownRunID(),
	}

	if sqlDB, err := db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
		st.Database = true
		if at, err := metadata.GetLastDrawSyncAt(db.WithContext(ctx)); err == nil && !at.IsZero() {
			st.LastDrawSyncAt = &at
		}
	}

	st.State = StateHealthy
	if !st.Database || !st.Redis {
		st.State = StateDegraded
	}
	return st
}
