package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"planwise/internal/security"
	"planwise/internal/service"
	"planwise/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies are everything the router hands to its handlers
type Dependencies struct {
	Auth          *service.AuthService
	Plannings     *service.PlanningService
	Tasks         *service.TaskService
	Stats         *service.StatsService
	Social        *service.SocialService
	Notifications *service.NotificationService
	Rebuilder     Rebuilder

	// Optional
	LoginLimiter         *security.RateLimiter
	OAuthProviders       map[string]OAuthProvider
	OAuthRedirectBaseURL string
	Health               Pinger
}

// NewRouter builds the HTTP API
func NewRouter(deps Dependencies) *gin.Engine {
	if err := validation.RegisterWithGin(); err != nil {
		log.Printf("Warning: custom validation rules unavailable: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logging(), Metrics())

	mw := NewMiddleware(deps.Auth)
	requireAuth := mw.RequireAuth()
	optionalAuth := mw.OptionalAuth()

	authHandler := NewAuthHandler(deps.Auth, deps.OAuthProviders, deps.OAuthRedirectBaseURL)
	planningHandler := NewPlanningHandler(deps.Plannings)
	taskHandler := NewTaskHandler(deps.Tasks)
	statsHandler := NewStatsHandler(deps.Stats, deps.Rebuilder)
	userHandler := NewUserHandler(deps.Social, deps.Notifications)

	r.GET("/healthz", healthz(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		login := []gin.HandlerFunc{authHandler.Login}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{RateLimit(deps.LoginLimiter)}, login...)
		}
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", login...)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/:provider/start", authHandler.StartOAuth)
		auth.GET("/:provider/callback", authHandler.OAuthCallback)
	}

	plannings := api.Group("/plannings")
	{
		plannings.GET("", requireAuth, planningHandler.List)
		plannings.GET("/public", optionalAuth, planningHandler.ListPublic)
		plannings.GET("/search", optionalAuth, planningHandler.Search)
		plannings.GET("/shared/:token", planningHandler.GetShared)
		plannings.GET("/:id", optionalAuth, planningHandler.Get)
		plannings.POST("", requireAuth, planningHandler.Create)
		plannings.PUT("/:id", requireAuth, planningHandler.Update)
		plannings.DELETE("/:id", requireAuth, planningHandler.Delete)
		plannings.POST("/:id/duplicate", requireAuth, planningHandler.Duplicate)
		plannings.POST("/:id/share", requireAuth, planningHandler.Share)
		plannings.DELETE("/:id/share", requireAuth, planningHandler.Unshare)
		plannings.POST("/:id/like", requireAuth, planningHandler.ToggleLike)
		plannings.POST("/:id/comments", requireAuth, planningHandler.AddComment)
	}

	tasks := api.Group("/tasks", requireAuth)
	{
		tasks.GET("/planning/:planningId", taskHandler.ListByPlanning)
		tasks.GET("/planning/:planningId/date/:date", taskHandler.ListByDate)
		tasks.POST("", taskHandler.Create)
		tasks.PUT("/reorder", taskHandler.Reorder)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.POST("/:id/toggle", taskHandler.Toggle)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	stats := api.Group("/stats")
	{
		stats.GET("/leaderboard", statsHandler.Leaderboard)
		stats.GET("/dashboard", requireAuth, statsHandler.Dashboard)
		stats.GET("/weekly-report", requireAuth, statsHandler.WeeklyReport)
		stats.GET("/heatmap", requireAuth, statsHandler.Heatmap)
		stats.GET("/by-category", requireAuth, statsHandler.ByCategory)
		stats.GET("/by-hour", requireAuth, statsHandler.ByHour)
	}

	users := api.Group("/users")
	{
		users.GET("/search", requireAuth, userHandler.Search)
		users.GET("/:user", optionalAuth, userHandler.Profile)
		users.POST("/:user/follow", requireAuth, userHandler.ToggleFollow)
		users.GET("/:user/followers", userHandler.Followers)
		users.GET("/:user/following", userHandler.Following)
		users.GET("/:user/achievements", userHandler.Achievements)
	}

	me := api.Group("/me", requireAuth)
	{
		me.GET("/notifications", userHandler.Notifications)
		me.PUT("/notifications/:id/read", userHandler.MarkNotificationRead)
		me.GET("/export", statsHandler.Export)
		if deps.Rebuilder != nil {
			me.POST("/stats/rebuild", statsHandler.Rebuild)
		}
	}

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respondWithError(c, http.StatusServiceUnavailable, "database unavailable", "Health check failed", err)
				return
			}
		}
		ok(c, gin.H{"status": "ok"})
	}
}
