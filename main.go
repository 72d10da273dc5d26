package main

import (
	"context"
	"log"
	"time"

	"learning-service/internal/auth"
	"learning-service/internal/config"
	"learning-service/internal/content"
	"learning-service/internal/db"
	"learning-service/internal/event"
	"learning-service/internal/handlers"
	"learning-service/internal/logger"
	"learning-service/internal/middleware"
	"learning-service/internal/repository"
	"learning-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	catalog, err := content.Load()
	if err != nil {
		zlog.Fatal("Failed to load lesson catalog", zap.Error(err))
	}

	mongoClient, err := db.Connect(cfg.MongoURI)
	if err != nil {
		zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	database := mongoClient.Database(cfg.MongoDatabase)

	// Redis backs the token blacklist; without it signout falls back to an
	// in-memory blacklist.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	} else {
		zlog.Warn("Redis not configured, token revocation is in-memory only")
	}

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitURI != "" {
		publisher, err = event.NewEventPublisher(cfg.RabbitURI, cfg.RabbitExchange, zlog)
		if err != nil {
			zlog.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
	} else {
		zlog.Warn("RabbitMQ not configured, domain events will not be published")
	}

	// Repositories, services, handlers
	progressRepo := repository.NewProgressRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	if err := accountRepo.EnsureIndexes(context.Background()); err != nil {
		zlog.Fatal("Failed to create account indexes", zap.Error(err))
	}

	var events service.EventSink
	if publisher != nil {
		events = publisher
	}
	progression := service.NewProgressionService(progressRepo, events, zlog, cfg.AdminEmail, cfg.DailyFreeCoins)
	attempts := service.NewAttemptService(attemptRepo, progression, catalog, zlog)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	blacklist := auth.NewBlacklist(redisClient)

	authHandler := handlers.NewAuthHandler(accountRepo, progression, tokens, blacklist)
	catalogHandler := handlers.NewCatalogHandler(catalog, progression)
	progressHandler := handlers.NewProgressHandler(progression, catalog)
	attemptHandler := handlers.NewAttemptHandler(attempts)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes
	publicAuth := r.Group("/public/learn/auth")
	{
		publicAuth.POST("/signup", authHandler.Signup)
		publicAuth.POST("/signin", authHandler.Signin)
		publicAuth.POST("/federated", authHandler.Federated)
	}

	publicCatalog := r.Group("/public/learn/catalog")
	{
		publicCatalog.GET("/languages", catalogHandler.ListLanguages)
	}

	// Protected routes
	protected := r.Group("/protected/learn")
	protected.Use(middleware.AuthRequired(tokens, blacklist))
	{
		protected.POST("/auth/signout", authHandler.Signout)

		protected.GET("/me", progressHandler.Me)
		protected.PUT("/me/profile", progressHandler.UpdateProfile)

		protected.GET("/catalog/languages/:languageId", catalogHandler.GetLanguage)
		protected.GET("/catalog/languages/:languageId/lessons/:lessonId", catalogHandler.GetLesson)

		attempt := protected.Group("/attempts")
		{
			attempt.POST("/", attemptHandler.Start)
			attempt.GET("/:id", attemptHandler.Get)
			attempt.POST("/:id/theory/advance", attemptHandler.AdvanceTheory)
			attempt.POST("/:id/quiz/answer", attemptHandler.AnswerQuiz)
			attempt.POST("/:id/challenge/run", attemptHandler.RunChallenge)
			attempt.POST("/:id/challenge/advance", attemptHandler.AdvanceChallenge)
			attempt.POST("/:id/skip", attemptHandler.Skip)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminRequired(progression))
		{
			admin.GET("/users", progressHandler.ListUsers)
			admin.POST("/users/:userId/coins", progressHandler.AdjustCoins)
		}
	}

	zlog.Info("learning service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("Server exited", zap.Error(err))
	}
}
