package user

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// User 是一个聊天参与者在本地的身份，同时保存外部客户记录的投影。
// ChatID 和 Phone 全局唯一；ExternalID 在关联成功之前为空。
type User struct {
	ID uint `gorm:"primarykey" json:"id"`

	// ChatID 是前端会话层的用户标识，创建后不再改变。
	ChatID int64 `gorm:"uniqueIndex;not null" json:"chatId"`

	// Phone 只包含数字。
	Phone string `gorm:"uniqueIndex;size:20;not null" json:"phone"`

	// ExternalID 是外部系统中的客户ID，所有彩票操作都以它为前提。
	ExternalID *int64 `gorm:"index" json:"externalId"`

	// --- 外部客户记录的投影字段 ---
	Name             *string             `gorm:"size:255" json:"name"`
	Email            *string             `gorm:"size:255" json:"email"`
	Balance          decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"balance"`
	AvailableTickets int                 `gorm:"not null;default:0;check:chk_users_available_tickets,available_tickets >= 0" json:"availableTickets"`
	Birthday         *time.Time          `json:"birthday"`
	Sex              *int                `json:"sex"`
	AdditionalFields datatypes.JSON      `json:"additionalFields"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLinked reports whether the user has an external customer id.
func (u *User) IsLinked() bool {
	return u.ExternalID != nil
}
