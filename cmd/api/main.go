// @title Quiz Funnel API
// @version 1.0
// @description Serves published quiz funnels and records their responses.
// @host localhost:8090
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name apikey
// @description API key identifying the owner namespace.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-funnel/internal/adapter"
	"quiz-funnel/internal/auth"
	"quiz-funnel/internal/cache"
	"quiz-funnel/internal/config"
	"quiz-funnel/internal/database"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/engine"
	"quiz-funnel/internal/gateway"
	"quiz-funnel/internal/handler"
	"quiz-funnel/internal/logger"
	"quiz-funnel/internal/middleware"
	"quiz-funnel/internal/repository"
	"quiz-funnel/internal/service"
	"quiz-funnel/internal/transport/live"
	"quiz-funnel/internal/webhook"

	_ "quiz-funnel/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Open(ctx, cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DB.Driver == database.DriverSQLite {
		if err := database.Migrate(db); err != nil {
			appLogger.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	healthChecks := map[string]handler.Pinger{"database": db}

	// Redis is optional; without it every lookup reads the database.
	var quizCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
			quizCache = cacheAdapter
			healthChecks["cache"] = handler.PingerFunc(cacheAdapter.Ping)
			appLogger.Info("RedisCacheAdapter initialized")
		}
	}

	// Webhook workers
	dispatcher := webhook.NewDispatcher(cfg.Webhook)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		if err := dispatcher.Run(context.Background()); err != nil {
			appLogger.Error("Webhook dispatcher stopped", zap.Error(err))
		}
	}()

	// Initialize repositories and services
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	responseRepository := repository.NewResponseDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	quizService := service.NewQuizService(quizRepository, txManager, quizCache, cfg.Cache.QuizTTL)
	responseService := service.NewResponseService(quizRepository, responseRepository, dispatcher)
	authenticator := auth.New(cfg.Auth)
	if !authenticator.RequiresToken() {
		appLogger.Warn("auth.jwt_secret is empty; bearer tokens are not verified")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,apikey",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app, authenticator, handler.Handlers{
		Quiz:     handler.NewQuizHandler(quizService),
		Response: handler.NewResponseHandler(responseService),
		Embed:    handler.NewEmbedHandler(),
		Health:   handler.NewHealthHandler(healthChecks),
	})

	// Live runs listener
	var liveServer *http.Server
	if cfg.Live.Enabled {
		liveHandler := live.NewServer(
			authenticator,
			quizService,
			gateway.NewLocal(responseService),
			engine.OptionsFromConfig(cfg.Engine),
			cfg.Presence,
		)
		liveServer = &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Live.Port),
			Handler:           liveHandler.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			appLogger.Info("Starting live listener", zap.Int("port", cfg.Live.Port))
			if err := liveServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Fatal("Failed to start live listener", zap.Error(err))
			}
		}()
	}

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if liveServer != nil {
		if err := liveServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Live listener forced to shutdown", zap.Error(err))
		}
	}

	// Queued webhooks are delivered before exit.
	dispatcher.Shutdown()
	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		appLogger.Warn("Webhook queue not drained before shutdown deadline")
	}
	appLogger.Info("Server exited gracefully")
}
