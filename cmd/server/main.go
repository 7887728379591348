package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/application"
	"github.com/PulseFit-Club/service-scheduling/internal/auth"
	"github.com/PulseFit-Club/service-scheduling/internal/config"
	"github.com/PulseFit-Club/service-scheduling/internal/database"
	schedulingEvents "github.com/PulseFit-Club/service-scheduling/internal/events"
	"github.com/PulseFit-Club/service-scheduling/internal/handler"
	"github.com/PulseFit-Club/service-scheduling/internal/health"
	"github.com/PulseFit-Club/service-scheduling/internal/kafka"
	"github.com/PulseFit-Club/service-scheduling/internal/logger"
	"github.com/PulseFit-Club/service-scheduling/internal/middleware"
	"github.com/PulseFit-Club/service-scheduling/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-scheduling")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-scheduling",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.SessionModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		// The partial unique index backing the no-duplicate-booking invariant
		// is not expressible as a GORM tag.
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_confirmed_booking
			ON bookings (session_id, client_id) WHERE status = 'confirmed'`).Error; err != nil {
			log.Fatal("failed to create confirmed-booking index", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.URL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer and audit sink
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()
	auditPublisher := schedulingEvents.NewAuditPublisher(kafkaProducer, "service-scheduling", log)

	// Initialize repositories
	txManager := repository.NewGormTxManager(db)
	sessionRepo := repository.NewGormSessionRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Initialize application services
	bookingService := application.NewBookingService(sessionRepo, bookingRepo, txManager, auditPublisher, log)
	sessionService := application.NewSessionService(sessionRepo, bookingRepo, txManager, auditPublisher, log)

	// Initialize and start identity event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.Kafka.GroupPrefix + "scheduling-service"
	identityConsumer := schedulingEvents.NewIdentityEventConsumer(
		cfg.Kafka.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = identityConsumer.Close() }()

	go func() {
		log.Info("starting identity event consumer")
		if err := identityConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("identity event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	rateLimit := middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	sessionHandler := handler.NewSessionHandler(sessionService)
	bookingHandler := handler.NewBookingHandler(bookingService, rateLimit)
	adminHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, "service-scheduling")
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	sessionHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-scheduling...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-scheduling stopped")
}
