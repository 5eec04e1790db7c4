package api

import (
	"net/http"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/health"
	"github.com/gin-gonic/gin"
)

// GetCurrentDraw 返回本地镜像中的当前期次。
func (h *Handlers) GetCurrentDraw(c *gin.Context) {
	d, err := h.draws.Repository().Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if d == nil {
		respondError(c, draw.ErrNoCurrentDraw)
		return
	}
	c.JSON(http.StatusOK, d)
}

// SyncDraw runs one draw sync cycle on demand.
func (h *Handlers) SyncDraw(c *gin.Context) {
	d, err := h.draws.SyncCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draw": d})
}

func (h *Handlers) Health(c *gin.Context) {
	st := health.Report(c.Request.Context(), h.db)
	status := http.StatusOK
	if st.State != health.StateHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, st)
}
