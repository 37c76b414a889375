package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/api"
	"github.com/rongwang/budget-server/internal/auth"
	"github.com/rongwang/budget-server/internal/config"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/rongwang/budget-server/internal/service"
	"github.com/rongwang/budget-server/internal/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("info").WithError(err).Fatal("Failed to load configuration")
	}

	logger := utils.NewLogger(cfg.Log.Level)
	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"port":   cfg.Server.Port,
	}).Info("Configuration loaded")

	// Set up the store
	var repo repository.Repository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		repo = repository.NewMemoryRepository()
		logger.Warn("Using in-memory store, data is lost on exit")

		if cfg.Auth.JWTSecret == "" {
			secret, err := randomSecret()
			if err != nil {
				logger.WithError(err).Fatal("Failed to generate JWT secret")
			}
			cfg.Auth.JWTSecret = secret
			logger.Warn("JWT_SECRET not set, tokens will not survive a restart")
		}
	default:
		db, err := config.SetupDatabase(cfg, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to set up database")
		}
		defer db.Close()

		repo = repository.NewPostgresRepository(db)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Create services
	svc := service.NewDefaultService(repo, tokens, logger)
	budget := service.NewBudgetService(repo, logger)

	// Create API handler
	handler := api.NewHandler(svc, budget, logger)

	// Set up Gin router
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestLogger(logger),
		api.CORSMiddleware(cfg.CORS.AllowedOrigins),
	)

	// Set up routes
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	// Start server
	logger.WithField("addr", srv.Addr).Info("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Failed to start server")
	}

	<-done
	logger.Info("Server stopped gracefully")
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
