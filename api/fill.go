package api

import (
	"net/http"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/fill"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/SlpAus/lotto-mirror-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

// SessionRequestBody 是开启会话之后每个填号请求都要携带的凭据。
type SessionRequestBody struct {
	SessionID string `json:"sessionId" form:"sessionId" binding:"required"`
	Signature string `json:"signature" form:"signature" binding:"required"`
}

// NumbersRequestBody carries free-form manual input.
type NumbersRequestBody struct {
	SessionRequestBody
	Numbers string `json:"numbers" binding:"required"`
}

// BeginFillResponse 返回新会话和它的签名。
type BeginFillResponse struct {
	Session   *fill.Session `json:"session"`
	Signature string        `json:"signature"`
}

// RequireRedisMiddleware 在 Redis 不可用时拒绝依赖会话存储的请求。
func RequireRedisMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !database.IsRedisHealthy() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, try again later", "code": "redis_unavailable"})
			return
		}
		c.Next()
	}
}

// LimitSubmitsMiddleware 限制每个聊天在时间窗口内的提交次数。未配置限流器时直接放行。
func (h *Handlers) LimitSubmitsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil {
			c.Next()
			return
		}
		ok, err := h.limiter.Allow(c.Request.Context(), user.FromContext(c).ChatID, time.Now())
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many submissions, try again later", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}

// verifySession checks the signature against the chat of the route.
func verifySession(c *gin.Context, body SessionRequestBody) bool {
	payload := token.SessionPayload{SessionID: body.SessionID, ChatID: user.FromContext(c).ChatID}
	if !token.ValidateSessionSignature(payload, body.Signature) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid session signature", "code": "invalid_signature"})
		return false
	}
	return true
}

func bindSession(c *gin.Context, body any) bool {
	if err := c.ShouldBind(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": "bad_request"})
		return false
	}
	return true
}

// BeginFill opens a fill session for the chat.
func (h *Handlers) BeginFill(c *gin.Context) {
	chatID := user.FromContext(c).ChatID
	sess, err := h.fill.Begin(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	signature, err := token.GenerateSessionSignature(token.SessionPayload{SessionID: sess.ID, ChatID: chatID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, BeginFillResponse{Session: sess, Signature: signature})
}

func (h *Handlers) GetFill(c *gin.Context) {
	sess, err := h.fill.Get(c.Request.Context(), user.FromContext(c).ChatID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// CancelFill takes the session credentials from the query string.
func (h *Handlers) CancelFill(c *gin.Context) {
	var body SessionRequestBody
	if err := c.ShouldBindQuery(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": "bad_request"})
		return
	}
	if !verifySession(c, body) {
		return
	}
	if err := h.fill.Cancel(c.Request.Context(), user.FromContext(c).ChatID, body.SessionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ChooseAuto(c *gin.Context) {
	var body SessionRequestBody
	if !bindSession(c, &body) || !verifySession(c, body) {
		return
	}
	res, err := h.fill.ChooseAuto(c.Request.Context(), user.FromContext(c).ChatID, body.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) ChooseManual(c *gin.Context) {
	var body SessionRequestBody
	if !bindSession(c, &body) || !verifySession(c, body) {
		return
	}
	sess, err := h.fill.ChooseManual(c.Request.Context(), user.FromContext(c).ChatID, body.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// SubmitNumbers 提交手动输入的号码。校验失败时返回 422，会话保持在手动输入状态。
func (h *Handlers) SubmitNumbers(c *gin.Context) {
	var body NumbersRequestBody
	if !bindSession(c, &body) || !verifySession(c, body.SessionRequestBody) {
		return
	}
	res, err := h.fill.SubmitManual(c.Request.Context(), user.FromContext(c).ChatID, body.SessionID, body.Numbers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
