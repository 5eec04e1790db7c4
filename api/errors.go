package api

import (
	"errors"
	"net/http"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/fill"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// 顺序有意义：先匹配本地业务错误，再匹配外部系统错误。
var errorMappings = []errorMapping{
	{user.ErrInvalidPhone, http.StatusBadRequest, "invalid_phone"},
	{user.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{user.ErrPhoneTaken, http.StatusConflict, "phone_taken"},
	{user.ErrNotLinked, http.StatusConflict, "not_linked"},
	{user.ErrCustomerMismatch, http.StatusConflict, "customer_mismatch"},
	{user.ErrNoTicketsAvailable, http.StatusConflict, "no_tickets_available"},
	{draw.ErrNoCurrentDraw, http.StatusConflict, "no_current_draw"},
	{draw.ErrDrawNotFound, http.StatusNotFound, "draw_not_found"},
	{fill.ErrNoSession, http.StatusNotFound, "no_session"},
	{fill.ErrSessionMismatch, http.StatusConflict, "session_replaced"},
	{fill.ErrSessionBusy, http.StatusConflict, "session_busy"},
	{fill.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{lotteryapi.ErrNotFound, http.StatusNotFound, "not_found"},
	{lotteryapi.ErrForbidden, http.StatusConflict, "forbidden"},
	{lotteryapi.ErrConflict, http.StatusConflict, "conflict"},
	{lotteryapi.ErrNoUnfilledTicket, http.StatusConflict, "no_unfilled_ticket"},
	{lotteryapi.ErrTransient, http.StatusServiceUnavailable, "external_unavailable"},
	{lotteryapi.ErrUnexpected, http.StatusBadGateway, "external_error"},
}

// respondError 把服务层错误统一翻译为 HTTP 状态码和 {"error","code"} 响应体。
func respondError(c *gin.Context, err error) {
	var verr *lottery.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": verr.Error(),
			"code":  "invalid_numbers",
			"rule":  verr.Rule,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": err.Error(), "code": m.code})
			return
		}
	}

	logger.Errorf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}
