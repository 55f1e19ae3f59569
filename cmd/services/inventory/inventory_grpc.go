package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"servora-system/config"
	"servora-system/internal/database"
	"servora-system/internal/inventory"
	"servora-system/internal/services/inventory/handler"
	"servora-system/internal/services/inventory/ledgerpb"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.Log)

	db, err := database.NewConnection(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to db: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	lis, err := net.Listen("tcp", cfg.GRPC.InventoryAddr)
	if err != nil {
		logger.Fatalf("Failed to listen: %v", err)
	}

	svcLog := logger.WithField("service", "inventory")
	s := grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(svcLog)))

	ledger := inventory.NewLedger(db, svcLog)
	ledgerpb.RegisterInventoryLedgerServer(s, handler.NewInventoryHandler(ledger, svcLog))

	reflection.Register(s)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		svcLog.Info("shutting down inventory service")
		s.GracefulStop()
	}()

	svcLog.WithFields(log.Fields{"addr": cfg.GRPC.InventoryAddr}).Info("inventory ledger service listening")
	if err := s.Serve(lis); err != nil {
		logger.Fatalf("Failed to serve: %v", err)
	}
}
