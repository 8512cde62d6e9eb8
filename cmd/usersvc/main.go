package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/usersvc/usersvc/common/otel"
	"github.com/usersvc/usersvc/internal/config"
	"github.com/usersvc/usersvc/internal/database"
	"github.com/usersvc/usersvc/internal/server"
	"github.com/usersvc/usersvc/internal/users"
	"github.com/usersvc/usersvc/pkg/logger"
	"github.com/usersvc/usersvc/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Create logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set up telemetry providers when enabled
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := otel.Setup(context.Background())
		if err != nil {
			zapLogger.Fatal("Failed to set up telemetry", zap.Error(err))
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				zapLogger.Error("Telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	// Connect to the database
	var db *gorm.DB
	switch cfg.Database.Driver {
	case "sqlite":
		db, err = database.NewSQLiteDB(cfg.Database.DSN)
	default:
		db, err = database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	}
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Bootstrap the schema, including the users email unique index
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Create services
	usersSvc, err := users.NewService(zapLogger, db)
	if err != nil {
		zapLogger.Fatal("Failed to create users service", zap.Error(err))
	}

	// Schedule DB pool metrics collection every 30s
	tickerDB := time.NewTicker(30 * time.Second)
	go func() {
		for range tickerDB.C {
			if sqlDB, err := db.DB(); err == nil {
				stats := sqlDB.Stats()
				metrics.DBOpenConns.WithLabelValues(cfg.Database.Driver).Set(float64(stats.OpenConnections))
				metrics.DBIdleConns.WithLabelValues(cfg.Database.Driver).Set(float64(stats.Idle))
				metrics.DBInUseConns.WithLabelValues(cfg.Database.Driver).Set(float64(stats.InUse))
			}
		}
	}()

	// Create API server
	apiServer := server.NewServer(zapLogger, usersSvc)

	// Start services
	if err := usersSvc.Start(); err != nil {
		zapLogger.Fatal("Failed to start users service", zap.Error(err))
	}

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	// Start server in a goroutine
	go func() {
		zapLogger.Info("Starting API server", zap.String("addr", addr))
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	// Stop services
	if err := usersSvc.Stop(); err != nil {
		zapLogger.Error("Failed to stop users service", zap.Error(err))
	}

	zapLogger.Info("Server exited properly")
}
