package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/logger"
	"gorm.io/gorm"
)

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phone)
}

// ValidatePhone 检查手机号在规范化之后是否包含 10 到 15 位数字。
func ValidatePhone(phone string) bool {
	n := len(NormalizePhone(phone))
	return n >= 10 && n <= 15
}

// Register 在首次接触时为一个聊天创建本地用户。
// 已注册的 chatID 直接返回现有记录；手机号被其他聊天占用时返回 ErrPhoneTaken。
func (r *Repository) Register(ctx context.Context, chatID int64, phone string) (*User, error) {
	if !ValidatePhone(phone) {
		return nil, ErrInvalidPhone
	}
	normalized := NormalizePhone(phone)

	existing, err := r.FindByChatID(ctx, chatID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if holder, err := r.FindByPhone(ctx, normalized); err == nil && holder.ChatID != chatID {
		return nil, ErrPhoneTaken
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u := &User{ChatID: chatID, Phone: normalized}
	if err := r.create(ctx, u); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("cannot create user for chat %d: %w", chatID, err)
		}
		// 并发注册：要么同一个聊天已经抢先写入，要么手机号刚被占用
		if existing, findErr := r.FindByChatID(ctx, chatID); findErr == nil {
			return existing, nil
		}
		return nil, ErrPhoneTaken
	}

	logger.Infof("user: registered chat %d", chatID)
	return u, nil
}
