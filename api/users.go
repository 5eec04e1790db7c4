package api

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/lotto-mirror-backend/internal/ticket"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// RegisterRequestBody 是注册请求的 JSON 结构
type RegisterRequestBody struct {
	ChatID int64  `json:"chatId" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
}

// UserResponse is the linkage and counter snapshot of a chat.
type UserResponse struct {
	*user.User
	Linked bool `json:"linked"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{User: u, Linked: u.IsLinked()}
}

// Register 注册聊天并立即尝试关联外部客户。关联失败不影响注册结果。
func (h *Handlers) Register(c *gin.Context) {
	var body RegisterRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": "bad_request"})
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.Register(ctx, body.ChatID, body.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	if !u.IsLinked() {
		h.linker.TryResolve(ctx, u)
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

// GetUser returns the stored projection without calling the external system.
func (h *Handlers) GetUser(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(user.FromContext(c)))
}

// LinkUser 重新从外部系统拉取客户记录并覆盖本地投影。
func (h *Handlers) LinkUser(c *gin.Context) {
	u := user.FromContext(c)
	if err := h.linker.Resolve(c.Request.Context(), u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// ListTickets returns the user's mirrored tickets. With sync=true they are
// pulled from the external system first.
func (h *Handlers) ListTickets(c *gin.Context) {
	drawID, ok := parseDrawQuery(c)
	if !ok {
		return
	}
	u := user.FromContext(c)
	ctx := c.Request.Context()

	var (
		tickets []ticket.Ticket
		err     error
	)
	if c.Query("sync") == "true" {
		tickets, err = h.tickets.SyncForUser(ctx, u, drawID)
	} else {
		tickets, err = h.ticketRepo.ListForUser(ctx, u.ID, drawID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if tickets == nil {
		tickets = []ticket.Ticket{}
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "availableTickets": u.AvailableTickets})
}

// GetResults checks the user's tickets against a draw's winning numbers.
func (h *Handlers) GetResults(c *gin.Context) {
	drawID, ok := parseDrawQuery(c)
	if !ok {
		return
	}
	d, results, err := h.tickets.Results(c.Request.Context(), user.FromContext(c), drawID)
	if err != nil {
		respondError(c, err)
		return
	}
	if d == nil || !d.HasResults() {
		c.JSON(http.StatusOK, gin.H{"draw": d, "published": false, "results": []ticket.Result{}})
		return
	}
	if results == nil {
		results = []ticket.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"draw": d, "published": true, "results": results})
}

func parseDrawQuery(c *gin.Context) (*int64, bool) {
	raw := c.Query("draw")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draw id", "code": "bad_request"})
		return nil, false
	}
	return &id, true
}
