package draw

import (
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/google/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Draw 是外部抽奖活动在本地的镜像，按 ExternalID 唯一。
type Draw struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	ExternalID int64  `gorm:"uniqueIndex;not null" json:"externalId"`
	Name       string `gorm:"size:255" json:"name"`
	Status     string `gorm:"size:20;not null;index" json:"status"`

	ScheduledAt *time.Time          `gorm:"index" json:"scheduledAt"`
	ExecutedAt  *time.Time          `json:"executedAt"`
	PrizePool   decimal.NullDecimal `gorm:"type:numeric(16,2)" json:"prizePool"`

	Type          *string `gorm:"size:50" json:"type"`
	Periodicity   *string `gorm:"size:50" json:"periodicity"`
	NumbersToPick *int    `json:"numbersToPick"`
	NumbersTotal  *int    `json:"numbersTotal"`

	PrizeGrid      datatypes.JSON  `json:"prizeGrid"`
	WinningNumbers lottery.Numbers `json:"winningNumbers"`
	Statistics     datatypes.JSON  `json:"statistics"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsCompleted reports whether the draw has been executed.
func (d *Draw) IsCompleted() bool {
	return d.Status == lotteryapi.DrawStatusCompleted
}

// HasResults reports whether winning numbers are published.
func (d *Draw) HasResults() bool {
	return len(d.WinningNumbers) > 0
}

// Rules returns the draw's pick/pool, falling back to fallback for any part
// the external record did not carry. A merged pair that picks more numbers
// than the pool holds is discarded in favour of fallback.
func (d *Draw) Rules(fallback lottery.Rules) lottery.Rules {
	r := fallback
	if d.NumbersToPick != nil && *d.NumbersToPick > 0 {
		r.Pick = *d.NumbersToPick
	}
	if d.NumbersTotal != nil && *d.NumbersTotal > 0 {
		r.Pool = *d.NumbersTotal
	}
	if r.Pick > r.Pool {
		logger.Warningf("draw: %d has inconsistent format pick=%d pool=%d, using %d/%d",
			d.ExternalID, r.Pick, r.Pool, fallback.Pick, fallback.Pool)
		return fallback
	}
	return r
}
