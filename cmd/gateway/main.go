package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/config"
	"servora-system/internal/auth"
	"servora-system/internal/dashboard"
	"servora-system/internal/database"
	"servora-system/internal/events"
	"servora-system/internal/gateway"
	"servora-system/internal/gateway/clients"
	"servora-system/internal/inventory"
	"servora-system/internal/menu"
	"servora-system/internal/orders"
	"servora-system/internal/reservations"
	"servora-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if logger.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	publishers := events.Multi{events.NewRedisPublisher(redisClient)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		logger.WithField("topic", cfg.Kafka.Topic).Info("publishing order events to kafka")
	}

	var grpcClients *clients.GRPCClients
	if cfg.GRPC.InventoryClientAddr != "" {
		grpcClients, err = clients.NewGRPCClients(cfg.GRPC.InventoryClientAddr)
		if err != nil {
			logger.WithError(err).Warn("inventory service unavailable, recording transactions in-process")
		} else {
			defer grpcClients.Close()
		}
	}

	ledger := inventory.NewLedger(db, logger.WithField("component", "inventory"))
	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	router := gateway.NewRouter(gateway.Deps{
		DB:        db,
		Redis:     redisClient,
		Clients:   grpcClients,
		Tokens:    tokens,
		Logger:    logger,
		RateLimit: cfg.RateLimit,

		Auth: auth.NewService(db, tokens, logger.WithField("component", "auth")),
		Menu: menu.NewService(db, redisClient, logger.WithField("component", "menu")),
		Orders: orders.NewService(db, publishers, logger.WithField("component", "orders"), orders.Options{
			RejectUnknownItems: cfg.Orders.RejectUnknownItems,
			StrictTransitions:  cfg.Orders.StrictTransitions,
		}),
		Reservations: reservations.NewService(db, logger.WithField("component", "reservations"), cfg.Orders.StrictTransitions),
		Ledger:       ledger,
		Dashboard:    dashboard.NewService(db, ledger, logger.WithField("component", "dashboard")),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
	logger.Info("server stopped")
}
