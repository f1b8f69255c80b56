package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biileprince/ReferX/internal/config"
	"github.com/biileprince/ReferX/internal/handlers"
	"github.com/biileprince/ReferX/internal/middleware"
	"github.com/biileprince/ReferX/internal/repositories/mongodb"
	"github.com/biileprince/ReferX/internal/services"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/internal/workers"
	"github.com/biileprince/ReferX/pkg/cache"
	"github.com/biileprince/ReferX/pkg/database"
	"github.com/biileprince/ReferX/pkg/email"
	"github.com/biileprince/ReferX/pkg/logger"
	"github.com/biileprince/ReferX/pkg/oauth"
	"github.com/biileprince/ReferX/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     !cfg.App.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongodb")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongodb.EnsureIndexes(ctx, db.Database); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to create indexes")
	}
	cancel()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisCache.Close()

	userRepo := mongodb.NewUserRepository(db.Database, redisCache)
	referralRepo := mongodb.NewReferralRepository(db.Database)
	rewardRepo := mongodb.NewRewardRepository(db.Database)

	mailer := email.NewSMTPSender(&email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		FromName:  cfg.SMTP.FromName,
	})

	googleProvider := oauth.NewGoogleProvider(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.GoogleRedirectURL,
	)

	authService := services.NewAuthService(userRepo, referralRepo, db, redisCache, mailer, googleProvider, cfg.Security, cfg.App, log)
	referralService := services.NewReferralService(referralRepo, userRepo, redisCache, log)
	rewardService := services.NewRewardService(rewardRepo, userRepo, log)
	dashboardService := services.NewDashboardService(userRepo, referralRepo, log)

	authHandler := handlers.NewAuthHandler(authService, cfg.Security, cfg.App, log)
	referralHandler := handlers.NewReferralHandler(referralService, log)
	rewardHandler := handlers.NewRewardHandler(rewardService, log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, log)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.Security, log)

	cleanupWorker := workers.NewIPCleanupWorker(userRepo, log)
	if err := cleanupWorker.Start(); err != nil {
		log.WithError(err).Fatal("failed to start ip cleanup worker")
	}
	defer cleanupWorker.Stop()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.Security.CORSAllowedOrigins))
	if cfg.Security.RateLimitEnabled {
		router.Use(middleware.RateLimit(redisCache, cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow, log))
	}

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.SuccessResponse(c, "ok", gin.H{
			"name":    cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	api := router.Group("/api")
	routes.SetupAuthRoutes(api, authHandler, authMiddleware)
	routes.SetupReferralRoutes(api, referralHandler, authMiddleware)
	routes.SetupRewardRoutes(api, rewardHandler, authMiddleware)
	routes.SetupDashboardRoutes(api, dashboardHandler, authMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
