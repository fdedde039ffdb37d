package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bookstore/recordstore/internal/api"
	"github.com/bookstore/recordstore/internal/config"
	"github.com/bookstore/recordstore/internal/events"
	grpcserver "github.com/bookstore/recordstore/internal/grpc"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/bookstore/recordstore/internal/metrics"
	"github.com/bookstore/recordstore/internal/snapshot"
	"github.com/bookstore/recordstore/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Initialize logger
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	log.Info("Record store starting",
		zap.String("snapshot_target", cfg.SnapshotTarget),
		zap.String("pricing_policy", cfg.PricingPolicy),
	)

	// Open the snapshot store
	store, err := snapshot.Open(cfg.SnapshotTarget, log)
	if err != nil {
		log.Fatal("Failed to open snapshot store", zap.Error(err))
	}
	defer store.Close()

	policy := merchant.PriceWhenUnavailable
	if cfg.PricingPolicy == config.PricingAnyTime {
		policy = merchant.PriceAnyTime
	}
	m := merchant.New(merchant.WithPricingPolicy(policy))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background writers to the engine and the store; joined before the final save.
	var workers sync.WaitGroup

	switch err := m.Load(ctx, store); {
	case err == nil:
		log.Info("Snapshot loaded", zap.Int("items", m.DistinctItemCount()))
	case errors.Is(err, snapshot.ErrNotFound):
		log.Info("No snapshot found, starting with an empty store")
	default:
		// Starting empty would overwrite the unreadable snapshot on the next save.
		log.Fatal("Failed to load snapshot", zap.Error(err))
	}

	// Connect to RabbitMQ when configured
	var (
		apiPublisher    api.Publisher
		healthPublisher grpcserver.HealthReporter
		notifier        events.AddedNotifier
		consumer        *events.Consumer
	)
	if cfg.RabbitMQURL != "" {
		log.Info("Connecting to RabbitMQ")
		publisher, err := events.NewPublisher(cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		apiPublisher, healthPublisher, notifier = publisher, publisher, publisher

		consumer, err = events.NewConsumer(cfg.RabbitMQURL, cfg.ServiceName, m, notifier, log)
		if err != nil {
			log.Fatal("Failed to start stock consumer", zap.Error(err))
		}
		defer consumer.Close()

		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Start(ctx); err != nil {
				log.Error("Stock consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("RABBITMQ_URL not set, events disabled")
	}

	// Create gRPC server with health service and reflection
	grpcServer := grpcserver.NewServer(grpcserver.NewHealthServer(store, healthPublisher, log), log)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal("Failed to listen on gRPC port", zap.Error(err))
	}

	go func() {
		log.Info("Starting gRPC server", zap.String("address", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	// Start HTTP server for the API and metrics
	apiServer := api.NewServer(m, store, apiPublisher, log)
	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: apiServer.Routes(map[string]http.Handler{
			"/metrics": metrics.Handler(metrics.NewRegistry(m)),
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	if cfg.AutosaveInterval > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			autosave(ctx, m, store, cfg.AutosaveInterval, log)
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()
	apiServer.Wait()
	workers.Wait()

	if err := m.Save(shutdownCtx, store); err != nil {
		log.Error("Failed to save snapshot on shutdown", zap.Error(err))
	} else {
		log.Info("Snapshot saved", zap.Int("items", m.DistinctItemCount()))
	}

	log.Info("Server stopped")
}

// autosave writes a snapshot every interval until ctx is cancelled. A save in
// progress completes before it returns.
func autosave(ctx context.Context, m *merchant.Merchant, store merchant.SnapshotWriter, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if err := m.Save(ctx, store); err != nil {
				log.Error("Autosave failed", zap.Error(err))
				continue
			}
			log.Debug("Autosave complete", zap.Int("items", m.DistinctItemCount()))
		}
	}
}
