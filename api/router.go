package api

import (
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/config"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h *Handlers, cfg config.ServerConfig) {
	loadUser := user.LoadUserMiddleware(h.users)

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		// 用户相关的路由组 /api/users
		users := api.Group("/users")
		{
			users.POST("", h.Register)

			chat := users.Group("/:"+user.ChatIDParam, loadUser)
			chat.GET("", h.GetUser)
			chat.POST("/link", h.LinkUser)
			chat.GET("/tickets", h.ListTickets)
			chat.GET("/results", h.GetResults)
		}

		draws := api.Group("/draws")
		{
			draws.GET("/current", h.GetCurrentDraw)
			draws.POST("/sync", h.SyncDraw)
		}

		// 填号会话依赖 Redis
		fillRoutes := api.Group("/fill/:"+user.ChatIDParam, RequireRedisMiddleware(), loadUser)
		{
			fillRoutes.POST("", h.BeginFill)
			fillRoutes.GET("", h.GetFill)
			fillRoutes.DELETE("", h.CancelFill)
			fillRoutes.POST("/auto", h.LimitSubmitsMiddleware(), h.ChooseAuto)
			fillRoutes.POST("/manual", h.ChooseManual)
			fillRoutes.POST("/numbers", h.LimitSubmitsMiddleware(), h.SubmitNumbers)
		}

		if cfg.AdminKey != "" {
			admin := api.Group("/admin", RequireAdminMiddleware(cfg.AdminKey))
			admin.POST("/tickets", h.IssueTicket)
		}
	}
}
