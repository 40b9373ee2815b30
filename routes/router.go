package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/dailydraw/config"
	"github.com/cppla/dailydraw/controllers"
	"github.com/cppla/dailydraw/middleware"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

// Dependencies are the collaborators the HTTP layer is built on.
type Dependencies struct {
	DB        *gorm.DB
	Ledger    *services.Ledger
	Prompts   *services.PromptEngine
	Chain     *services.PromptChain
	Rollover  *services.Rollover
	Posts     controllers.PostReader
	Clock     services.Clock
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = utils.NewRollingFileLogger(cfg.GinPath, cfg)
	}
	r.Use(utils.Ginzap(accessLog))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Scheduler-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(deps.DB)
	drawingController := controllers.NewDrawingController(deps.Ledger, deps.Prompts, deps.Chain, deps.Rollover, deps.Clock)
	promptController := controllers.NewPromptController(deps.Prompts, deps.Clock)
	postController := controllers.NewPostController(deps.Posts, deps.Rollover)
	schedulerController := controllers.NewSchedulerController(deps.Rollover)

	writeLimiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(writeLimiter.Middleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	public := api.Group("")
	public.Use(middleware.OptionalAuth())
	public.GET("/init", drawingController.Init)
	public.GET("/prompt", drawingController.Prompt)
	public.GET("/submissions", drawingController.Submissions)
	public.GET("/leaderboard", drawingController.Leaderboard)
	public.GET("/prompts", promptController.List)
	public.GET("/prompts/top", promptController.Top)
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/:ref", postController.GetPost)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), writeLimiter.Middleware())
	protected.GET("/profile", drawingController.Profile)
	protected.POST("/submit", drawingController.Submit)
	protected.POST("/vote", drawingController.Vote)
	protected.POST("/prompts", promptController.Submit)
	protected.POST("/prompts/:id/vote", promptController.Vote)

	moderator := protected.Group("")
	moderator.Use(middleware.ModeratorRequired())
	moderator.POST("/prompts/:id/select", promptController.Select)
	moderator.POST("/prompts/:id/reject", promptController.Reject)
	moderator.PUT("/prompts/override", promptController.Override)
	moderator.POST("/posts", postController.CreateDailyPost)

	internal := r.Group("/internal/scheduler")
	internal.Use(middleware.SchedulerTokenRequired())
	internal.POST("/daily-rollover", schedulerController.DailyRollover)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
