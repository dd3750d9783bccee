// Package main provides the main entry point for the queue management service
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/knobo/simple-queue-management-sub000/app/handlers"
	"github.com/knobo/simple-queue-management-sub000/app/middleware"
	"github.com/knobo/simple-queue-management-sub000/app/router"
	"github.com/knobo/simple-queue-management-sub000/app/scheduler"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/config"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting queue management service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	config.SetupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startMetricsServer exposes Prometheus metrics on a dedicated port.
// The returned stop function shuts the listener down.
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Metrics server starting on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	queueRepo := repository.NewQueueRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	stageRepo := repository.NewDisplayStageRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	sessionRepo := repository.NewCounterSessionRepository(db)
	accessTokenRepo := repository.NewAccessTokenRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	var notificationService services.NotificationService
	if rc != nil {
		notificationService = services.NewRedisNotificationService(rc, cfg.Cache.RedisPrefix)
	} else {
		notificationService = services.NewNoopNotificationService()
	}

	quotaService := services.NewPlanQuotaService(cfg.Quota.MaxQueuesPerOwner, cfg.Quota.MaxCountersPerQueue)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	loginFlow := businessflow.NewLoginFlow(
		operatorRepo,
		auditRepo,
		tokenService,
	)

	queueFlow := businessflow.NewQueueFlow(
		queueRepo,
		stageRepo,
		counterRepo,
		auditRepo,
		quotaService,
		notificationService,
		db,
	)

	ticketFlow := businessflow.NewTicketFlow(
		queueRepo,
		ticketRepo,
		sequenceRepo,
		stageRepo,
		counterRepo,
		sessionRepo,
		auditRepo,
		notificationService,
		db,
	)

	sessionFlow := businessflow.NewSessionFlow(
		queueRepo,
		counterRepo,
		sessionRepo,
		auditRepo,
		db,
	)

	accessTokenFlow := businessflow.NewAccessTokenFlow(
		queueRepo,
		accessTokenRepo,
		ticketRepo,
		sequenceRepo,
		stageRepo,
		auditRepo,
		notificationService,
		db,
	)

	statusFlow := businessflow.NewQueueStatusFlow(
		queueRepo,
		ticketRepo,
		stageRepo,
		rc,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(loginFlow)
	queueHandler := handlers.NewQueueHandler(queueFlow)
	ticketHandler := handlers.NewTicketHandler(ticketFlow)
	sessionHandler := handlers.NewSessionHandler(sessionFlow)
	tokenHandler := handlers.NewTokenHandler(accessTokenFlow)
	publicHandler := handlers.NewPublicHandler(accessTokenFlow, statusFlow, ticketFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		queueHandler,
		ticketHandler,
		sessionHandler,
		tokenHandler,
		publicHandler,
		authMiddleware,
		cfg.Security.AllowedOrigins,
	)

	if cfg.Scheduler.RotationEnabled {
		sched := scheduler.NewRotationScheduler(queueRepo, accessTokenFlow, rc, cfg.Scheduler.RotationPollInterval)
		stopScheduler := sched.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics)
		stopFuncs = append(stopFuncs, stopMetrics)
	}

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
