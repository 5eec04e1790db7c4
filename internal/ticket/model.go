package ticket

import (
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/shopspring/decimal"
)

// Status is derived from numbers, winner flag and draw completion; it is
// never set directly.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Ticket 是外部彩票在本地的镜像。只有已经拥有外部ID的彩票才会被镜像。
type Ticket struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	ExternalID int64  `gorm:"uniqueIndex;not null" json:"externalId"`
	UserID     uint   `gorm:"index;not null" json:"userId"`
	CustomerID *int64 `gorm:"index" json:"customerId"`
	DrawID     int64  `gorm:"index;not null" json:"drawId"`

	Numbers      lottery.Numbers     `json:"numbers"`
	Status       Status              `gorm:"size:20;not null;index" json:"status"`
	IsWinner     bool                `gorm:"not null" json:"isWinner"`
	MatchedCount *int                `json:"matchedCount"`
	PrizeAmount  decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"prizeAmount"`

	FilledAt *time.Time `json:"filledAt"`
	FilledBy *string    `gorm:"size:20" json:"filledBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeriveStatus computes a ticket's status. A ticket is lost only when it has
// numbers, is not a winner and its draw is known locally to be completed.
func DeriveStatus(numbers lottery.Numbers, winner, drawCompleted bool) Status {
	switch {
	case len(numbers) == 0:
		return StatusPending
	case winner:
		return StatusWon
	case drawCompleted:
		return StatusLost
	default:
		return StatusActive
	}
}
