package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api/controller"
	"github.com/lovecourt/backend/internal/api/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(
	r *gin.Engine,
	authCtrl *controller.AuthController,
	chatCtrl *controller.ChatController,
	verdictCtrl *controller.VerdictController,
	diagCtrl *controller.DiagnoseController,
) {
	r.Use(middleware.Cors())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/api/v1/auth")
	{
		public.POST("/register", authCtrl.Register)
		public.POST("/login", authCtrl.Login)
		public.POST("/anonymous", authCtrl.Anonymous)
	}

	// 会话接口允许匿名使用，身份解析失败不拦截
	api := r.Group("/api/v1")
	api.Use(middleware.OptionalJWTAuth())
	{
		api.POST("/chat/messages", chatCtrl.Send)
		api.GET("/chat/session", chatCtrl.Session)
		api.POST("/chat/summary", chatCtrl.SetSummary)
		api.POST("/chat/reset", chatCtrl.Reset)

		api.POST("/verdict", verdictCtrl.Fetch)
		api.GET("/verdict", verdictCtrl.Last)

		api.GET("/ping", diagCtrl.Ping)
		api.GET("/diagnose", diagCtrl.Diagnose)
	}
}
