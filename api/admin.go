package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/gin-gonic/gin"
)

const adminKeyHeader = "X-Admin-Key"

// IssueTicketRequestBody 是管理员发放彩票的请求结构。Numbers 为空时发放未填号的彩票。
type IssueTicketRequestBody struct {
	Phone   string `json:"phone" binding:"required"`
	Numbers []int  `json:"numbers"`
}

// RequireAdminMiddleware compares the admin header in constant time.
func RequireAdminMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(adminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin key required", "code": "unauthorized"})
			return
		}
		c.Next()
	}
}

// IssueTicket 为手机号对应的用户在当前期次发放一张彩票。
func (h *Handlers) IssueTicket(c *gin.Context) {
	var body IssueTicketRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": "bad_request"})
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.FindByPhone(ctx, user.NormalizePhone(body.Phone))
	if err != nil {
		respondError(c, err)
		return
	}
	var numbers lottery.Numbers
	if len(body.Numbers) > 0 {
		numbers = body.Numbers
	}
	t, err := h.issuer.Issue(ctx, u, numbers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": t, "availableTickets": u.AvailableTickets})
}
