package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowCredentials = false
	r.Use(cors.New(corsConfig))

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("habitlog_session", store))

	// 上传的头像等静态文件
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/health", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", handler.Logout)
	}

	// 业务 API，全部要求登录
	apiGroup := r.Group("/api")
	apiGroup.Use(handler.AuthRequired())
	{
		apiGroup.GET("/habits", api.ListHabits)
		apiGroup.POST("/habits", api.CreateHabit)
		apiGroup.PUT("/habits/reorder", api.ReorderHabits)
		apiGroup.GET("/habits/:id", api.GetHabit)
		apiGroup.PUT("/habits/:id", api.UpdateHabit)
		apiGroup.DELETE("/habits/:id", api.DeleteHabit)

		apiGroup.GET("/habits/:id/progress", api.ListProgress)
		apiGroup.PUT("/habits/:id/progress", api.UpsertProgress)
		apiGroup.PUT("/habits/:id/checked", api.UpsertChecked)
		apiGroup.PUT("/habits/:id/note", api.SetNote)
		apiGroup.GET("/habits/:id/day", api.GetDayProgress)

		apiGroup.GET("/habits/:id/stats/month", api.HabitMonthGrid)
		apiGroup.GET("/habits/:id/stats/alltime", api.HabitAllTime)
		apiGroup.GET("/habits/:id/stats/year", api.HabitYear)
		apiGroup.GET("/habits/:id/stats/last365", api.HabitLast365)
		apiGroup.GET("/stats/overview", api.Overview)

		apiGroup.GET("/habits/:id/reminder", api.GetReminder)
		apiGroup.PUT("/habits/:id/reminder", api.SetReminder)
		apiGroup.DELETE("/habits/:id/reminder", api.CancelReminder)

		apiGroup.GET("/profile", api.GetProfile)
		apiGroup.PUT("/profile", api.UpdateProfile)
		apiGroup.POST("/profile/avatar", api.UploadAvatar)
	}

	return r
}
