package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

const (
	ChatIDParam = "chatID"
	UserKey     = "user"
)

// LoadUserMiddleware 解析路径中的 chatID 并把对应的用户放入 Gin 上下文。
// 未注册的聊天返回 404。
func LoadUserMiddleware(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, err := strconv.ParseInt(c.Param(ChatIDParam), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
			return
		}

		u, err := repo.FindByChatID(c.Request.Context(), chatID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "chat is not registered"})
				return
			}
			logger.Errorf("user: cannot load chat %d: %v", chatID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.Set(UserKey, u)
		c.Next()
	}
}

// FromContext returns the user stored by LoadUserMiddleware.
func FromContext(c *gin.Context) *User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*User)
	return u
}
