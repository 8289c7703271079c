package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"internhub/config"
	"internhub/controllers"
	"internhub/middleware"
	"internhub/utils"
)

// SetupRouter wires every handler onto a gin engine. The attendance policy is
// parsed from config here, so a bad cutoff string fails at boot instead of on
// the first check-in.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := controllers.NewAuthController(db)
	attendance, err := controllers.NewAttendanceController(db, cfg.Attendance)
	if err != nil {
		return nil, err
	}
	applications := controllers.NewApplicationController(db)
	permissions := controllers.NewPermissionController(db)
	projects := controllers.NewProjectController(db)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/static", "./static")

	v1 := r.Group("/api/v1")

	// Public surface: registration, login, OAuth and the project showcase.
	public := v1.Group("")
	public.Use(middleware.RateLimitMiddleware())
	{
		public.POST("/auth/register", auth.Register)
		public.POST("/auth/login", auth.Login)
		public.GET("/auth/oauth/google/login", auth.OAuthGoogleRedirect)
		public.GET("/auth/oauth/google/callback", auth.OAuthGoogleCallback)
		public.GET("/projects", projects.List)
		public.GET("/projects/:id", projects.Get)
	}

	// Authenticated surface.
	user := v1.Group("")
	user.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	{
		user.POST("/auth/logout", auth.Logout)
		user.GET("/auth/me", auth.Me)
		user.PATCH("/auth/profile", auth.UpdateProfile)
		user.POST("/face/enroll", auth.EnrollFace)

		user.PUT("/applications/me", applications.UpsertMine)
		user.GET("/applications/me", applications.GetMine)

		user.POST("/attendance/check-in", attendance.CheckIn)
		user.POST("/attendance/check-out", attendance.CheckOut)
		user.POST("/attendance/break", attendance.Break)
		user.GET("/attendance/today", attendance.Today)
		user.GET("/attendance/history", attendance.History)

		user.POST("/permissions", permissions.Create)
		user.GET("/permissions/me", permissions.ListMine)

		user.POST("/projects", projects.Create)
		user.PUT("/projects/:id", projects.Update)
		user.DELETE("/projects/:id", projects.Delete)
		user.POST("/projects/:id/thumbnail", projects.Thumbnail)

		// Developer convenience for re-testing a day's flow. Not wired in
		// release mode.
		if gin.Mode() != gin.ReleaseMode {
			user.DELETE("/attendance/today", attendance.ResetToday)
		}
	}

	// Admin surface.
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/users", auth.ListUsers)
		admin.POST("/users/:id/face/reset", auth.ResetFace)
		admin.GET("/applications", applications.AdminList)
		admin.PATCH("/applications/:id", applications.Review)
		admin.POST("/applications/:id/reply-letter", applications.ReplyLetter)
		admin.GET("/attendance", attendance.AdminList)
		admin.GET("/permissions", permissions.AdminList)
		admin.PATCH("/permissions/:id", permissions.Review)
	}

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r, nil
}
