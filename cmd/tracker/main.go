package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "jetton-ticket-tracker/internal/application/service"
	domain_service "jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/api"
	"jetton-ticket-tracker/internal/infrastructure/blockchain"
	"jetton-ticket-tracker/internal/infrastructure/cache"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"
	"jetton-ticket-tracker/internal/infrastructure/messaging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.App),
		fx.Supply(&cfg.TonAPI),
		fx.Supply(&cfg.Campaign),
		fx.Supply(&cfg.NATS),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			blockchain.NewTonAPIClient,
			func(c *blockchain.TonAPIClient) domain_service.TransactionFetcher { return c },
			func(c *blockchain.TonAPIClient) domain_service.EventFetcher { return c },
			blockchain.NewTonAddressCodec,
			blockchain.NewJettonTransferExtractor,
			blockchain.NewTicketEventScanner,
			cache.NewSnapshotCache,
			messaging.NewNATSPublisher,
			func(p *messaging.NATSPublisher) domain_service.SnapshotPublisher { return p },
			api.NewServer,
		),

		// Application providers
		fx.Provide(
			app_service.NewTicketAggregationService,
			func(agg domain_service.AggregationService, cfg *config.Config, log *logger.Logger) *app_service.RefreshScheduler {
				return app_service.NewRefreshScheduler(agg, cfg.Campaign.RefreshInterval, log)
			},
		),

		// Lifecycle hooks
		fx.Invoke(startScheduler),
		fx.Invoke(startAPIServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// startScheduler connects the snapshot publisher and runs the periodic
// refresh loop for the lifetime of the application.
func startScheduler(
	lifecycle fx.Lifecycle,
	scheduler *app_service.RefreshScheduler,
	publisher *messaging.NATSPublisher,
	log *logger.Logger,
) {
	runCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting ticket aggregation...")

			if err := publisher.Connect(ctx); err != nil {
				// Snapshot publication is best effort; the tracker keeps
				// serving without it.
				log.Warn("NATS connection failed, continuing without publication", zap.Error(err))
			}

			go scheduler.Run(runCtx)

			log.Info("Ticket aggregation started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping ticket aggregation...")
			cancel()
			publisher.Disconnect()
			return nil
		},
	})
}

// startAPIServer starts the snapshot query server.
func startAPIServer(
	lifecycle fx.Lifecycle,
	server *api.Server,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
