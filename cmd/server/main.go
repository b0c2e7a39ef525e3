package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planwise/internal/cache"
	"planwise/internal/config"
	"planwise/internal/database"
	"planwise/internal/handlers"
	"planwise/internal/progress"
	"planwise/internal/repository"
	"planwise/internal/scheduler"
	"planwise/internal/security"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	planningRepo := repository.NewPlanningRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: email disabled: %v", err)
		emailService = nil
	}

	clock := progress.RealClock{}
	engine := progress.NewEngine(progress.Stores{
		Plannings:    planningRepo,
		Tasks:        taskRepo,
		Stats:        statsRepo,
		Ledger:       pointsRepo,
		Achievements: achievementRepo,
	}, progress.DefaultCatalog(), clock)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, emailService)
	engine.SetUnlockHook(notificationService)

	// Redis is optional: without it logout is a no-op and the leaderboard is not cached
	var revoker service.TokenRevoker
	var leaderboardCache service.LeaderboardCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, continuing without it: %v", err)
		} else {
			defer client.Close()
			revoker = cache.NewTokenBlacklist(client)
			leaderboardCache = cache.NewJSONCache(client, "planwise:cache:")
			log.Println("Redis connected")
		}
	}

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)
	authService := service.NewAuthService(userRepo, tokens, revoker, emailService)
	planningService := service.NewPlanningService(planningRepo, taskRepo, socialRepo, userRepo, notificationService, engine, clock)
	taskService := service.NewTaskService(taskRepo, planningRepo, engine)
	statsService := service.NewStatsService(statsRepo, taskRepo, planningRepo, pointsRepo, achievementRepo, userRepo, clock)
	if leaderboardCache != nil {
		statsService.SetLeaderboardCache(leaderboardCache, cfg.LeaderboardCacheTTL)
	}
	socialService := service.NewSocialService(userRepo, planningRepo, socialRepo, achievementRepo, notificationService)

	providers := map[string]handlers.OAuthProvider{}
	if cfg.OAuthEnabled() {
		providers["google"] = handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret)
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Auth:                 authService,
		Plannings:            planningService,
		Tasks:                taskService,
		Stats:                statsService,
		Social:               socialService,
		Notifications:        notificationService,
		Rebuilder:            engine,
		LoginLimiter:         security.NewRateLimiter(ctx, cfg.LoginRateLimit, cfg.LoginRateWindow),
		OAuthProviders:       providers,
		OAuthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
		Health:               db,
	})

	// Background maintenance
	jobs := scheduler.New(ctx)
	if err := jobs.Add(cfg.MaintenanceSchedule, scheduler.Job{
		Name:    "prune-notifications",
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := notificationService.Prune(ctx, cfg.NotificationMaxAge)
			return err
		},
	}); err != nil {
		log.Fatalf("Failed to schedule maintenance: %v", err)
	}
	if leaderboardCache != nil {
		if err := jobs.Add(cfg.MaintenanceSchedule, scheduler.Job{
			Name:    "warm-leaderboard",
			Timeout: 30 * time.Second,
			Run:     statsService.WarmLeaderboard,
		}); err != nil {
			log.Fatalf("Failed to schedule maintenance: %v", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
		os.Exit(1)
	}
}
