package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payperplay/profiles/internal/api"
	"github.com/payperplay/profiles/internal/events"
	"github.com/payperplay/profiles/internal/middleware"
	"github.com/payperplay/profiles/internal/repository"
	"github.com/payperplay/profiles/internal/service"
	"github.com/payperplay/profiles/internal/storage"
	"github.com/payperplay/profiles/pkg/config"
	"github.com/payperplay/profiles/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":   cfg.AppName,
		"debug": cfg.Debug,
		"port":  cfg.Port,
	})

	// Initialize database
	if err := repository.InitDB(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	logger.Info("Database initialized", nil)
	defer func() {
		if err := repository.GetDBProvider().Close(); err != nil {
			logger.Error("Failed to close database", err, nil)
		}
	}()

	// Initialize Event-Bus with multi-storage (PostgreSQL + InfluxDB)
	db := repository.GetDB()
	dbStorage := events.NewDatabaseEventStorage(db)

	var eventStorage events.EventStorage = dbStorage
	if cfg.InfluxDBURL != "" && cfg.InfluxDBToken != "" {
		influxClient, err := storage.NewInfluxDBClient(storage.InfluxDBConfig{
			URL:    cfg.InfluxDBURL,
			Token:  cfg.InfluxDBToken,
			Org:    cfg.InfluxDBOrg,
			Bucket: cfg.InfluxDBBucket,
		})
		if err != nil {
			logger.Warn("Failed to initialize InfluxDB, falling back to database-only storage", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer influxClient.Close()
			eventStorage = events.NewMultiEventStorage(dbStorage, events.NewInfluxDBEventStorage(influxClient))
			logger.Info("Event-Bus initialized with dual storage (PostgreSQL + InfluxDB)", map[string]interface{}{
				"influxdb_url": cfg.InfluxDBURL,
				"org":          cfg.InfluxDBOrg,
				"bucket":       cfg.InfluxDBBucket,
			})
		}
	} else {
		logger.Info("Event-Bus initialized with database storage only", nil)
	}

	events.SetEventStorage(eventStorage)
	bus := events.GetEventBus()

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	profileRepo := repository.NewProfileRepository(db, cfg.ProfilesPathRoot)

	// Initialize services
	profileService := service.NewProfileService(projectRepo, profileRepo, bus, cfg.ProfileSessionTTL)
	logger.Info("Profile service initialized", map[string]interface{}{
		"session_ttl": cfg.ProfileSessionTTL.String(),
		"path_root":   cfg.ProfilesPathRoot,
	})

	projectService := service.NewProjectService(projectRepo)

	// Handlers
	projectHandler := api.NewProjectHandler(profileService, projectService)
	profileHandler := api.NewProfileHandler(profileService)
	healthHandler := api.NewHealthHandler(repository.GetDBProvider(), profileService)
	prometheusHandler := api.NewPrometheusHandler()

	// Live feed of saved profiles for open editors
	watchHub := api.NewProfileWatchHub(profileService, bus)
	go watchHub.Run()
	logger.Info("Profile watch hub started", nil)

	stopCleanup := make(chan struct{})
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.StartCleanup(5*time.Minute, stopCleanup)

	// Setup router
	router := api.SetupRouter(projectHandler, profileHandler, watchHub, healthHandler, prometheusHandler, rateLimiter, cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"address":      addr,
			"api_endpoint": fmt.Sprintf("http://localhost%s/api", addr),
			"health_check": fmt.Sprintf("http://localhost%s/health", addr),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err, nil)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...", map[string]interface{}{
		"active_sessions": profileService.ActiveSessions(),
	})

	close(stopCleanup)
	watchHub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown did not complete", err, nil)
	}

	logger.Info("Shutdown complete", nil)
}
