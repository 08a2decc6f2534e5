// Pricing service entrypoint: HTTP API for Black-Scholes option pricing,
// backed by MySQL, Redis and a Kafka outbox relay.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/messaging"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/mysql"
	httphandler "github.com/wyfcoding/optionpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/db"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/mq"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
)

func main() {
	// 1. Load configuration
	configPath := config.GetEnv("APP_CONFIG", "configs/pricing/config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting PricingService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. Initialize database
	dbCfg := db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}
	database, err := db.Init(dbCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.DB.AutoMigrate(&mysql.CalculationModel{}, &messaging.OutboxMessage{}); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 4. Initialize Redis
	redisCfg := cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisCache, err := cache.New(redisCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. Initialize rate limiter
	rateLimiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())

	// 6. Initialize Kafka producer
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	// 7. Initialize metrics
	metricsInstance := metrics.New(cfg.ServiceName)
	if err := metricsInstance.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics HTTP server", "error", err)
		}
	}

	// 8. Wire repository, outbox publisher and application service
	repo := mysql.NewCalculationRepository(database.DB)
	publisher := messaging.NewOutboxPublisher(database.DB)
	appService := application.NewPricingService(repo, publisher, redisCache, metricsInstance, cfg.Batch)
	defer appService.Close()

	// 9. Start the outbox relay
	relay := messaging.NewOutboxRelay(database.DB, producer, metricsInstance, cfg.Outbox)
	relayCtx, relayCancel := context.WithCancel(ctx)
	defer relayCancel()
	go relay.Run(relayCtx)

	// 10. Create HTTP server
	httpServer := createHTTPServer(cfg, appService, rateLimiter, metricsInstance, database, redisCache)

	// 11. Start HTTP server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		logger.Info(ctx, "Starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 12. Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down PricingService")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	relayCancel()

	logger.Info(ctx, "PricingService stopped")
}

func createHTTPServer(
	cfg *config.Config,
	appService *application.PricingService,
	rateLimiter ratelimit.RateLimiter,
	m *metrics.Metrics,
	database *db.DB,
	redisCache *cache.RedisCache,
) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(m))
	router.Use(middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit))

	httpHandler := httphandler.NewPricingHandler(appService)
	httpHandler.RegisterRoutes(router.Group("/api"))

	router.GET("/health", func(c *gin.Context) {
		checks := gin.H{"database": "up", "redis": "up"}
		healthy := true
		if err := database.Ping(c.Request.Context()); err != nil {
			checks["database"] = "down"
			healthy = false
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "down"
			healthy = false
		}
		status := http.StatusOK
		statusText := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			statusText = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":    statusText,
			"service":   cfg.ServiceName,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}
