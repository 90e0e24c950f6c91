package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gesoten/nft-game-gateway/internal/adapter"
	"github.com/gesoten/nft-game-gateway/internal/api/server"
	"github.com/gesoten/nft-game-gateway/internal/auth"
	"github.com/gesoten/nft-game-gateway/internal/chain"
	"github.com/gesoten/nft-game-gateway/internal/config"
	"github.com/gesoten/nft-game-gateway/internal/content"
	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/executor"
	"github.com/gesoten/nft-game-gateway/internal/logger"
	"github.com/gesoten/nft-game-gateway/internal/lottery"
	"github.com/gesoten/nft-game-gateway/internal/reconciler"
	"github.com/gesoten/nft-game-gateway/internal/registry"
	"github.com/gesoten/nft-game-gateway/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadGatewayConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "nft-game-gateway",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting NFT game gateway")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)

	// Load contract registry
	contracts, err := registry.LoadContracts(cfg.ContractsPath)
	if err != nil {
		logger.Fatal("Failed to load contract registry",
			zap.Error(err),
			zap.String("path", cfg.ContractsPath))
	}

	// Dial the configured networks
	clock := adapter.NewClock()
	dialer := adapter.NewEthClientDialer()
	networks, err := dialNetworks(ctx, cfg, dialer, clock)
	if err != nil {
		logger.Fatal("Failed to connect to networks", zap.Error(err))
	}
	defer networks.Close()

	storage := content.NewHTTPStorage(content.Config{
		UploadURL:    cfg.Content.UploadURL,
		APIKey:       cfg.Content.APIKey,
		Timeout:      cfg.Content.Timeout,
		MaxImageSize: cfg.Content.MaxImageSize,
	})

	exec := executor.New(networks, contracts, storage, dataStore)
	engine := lottery.NewEngine(dataStore, nil)
	authService := auth.NewService(auth.Config{
		TokenKey: cfg.Auth.TokenKey,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})

	// Start the submission reconciler
	rec := reconciler.New(reconciler.Config{
		Interval:  cfg.Reconciler.Interval,
		BatchSize: cfg.Reconciler.BatchSize,
		PoolSize:  cfg.Reconciler.PoolSize,
	}, networks, dataStore, clock)
	go func() {
		if err := rec.Start(ctx); err != nil {
			logger.Error(err, zap.String("component", "reconciler"))
		}
	}()

	// Create and start server
	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}, dataStore, exec, engine, authService)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "server"))
		cancel()
	}

	// Shutdown with a fresh context; the main one is canceled
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := rec.Stop(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "reconciler"))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}

// dialNetworks connects a chain client for every network with a
// configured RPC endpoint
func dialNetworks(ctx context.Context, cfg *config.GatewayConfig, dialer adapter.EthClientDialer, clock adapter.Clock) (*registry.Networks, error) {
	var clients []chain.Client
	for name, netCfg := range cfg.Networks {
		if netCfg.RPCURL == "" {
			continue
		}

		network, err := domain.ParseNetwork(name)
		if err != nil {
			return nil, err
		}

		eth, err := dialer.Dial(ctx, netCfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", network, err)
		}

		clients = append(clients, chain.NewClient(chain.Config{
			Network:           network,
			ChainID:           netCfg.ChainID,
			GasLimit:          netCfg.GasLimit,
			GasPriceFloorGwei: netCfg.GasPriceFloorGwei,
			ReceiptTimeout:    netCfg.ReceiptTimeout,
		}, eth, clock))

		logger.Info("Connected to network",
			zap.String("network", string(network)),
			zap.Int64("chain_id", netCfg.ChainID),
		)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no networks configured")
	}
	return registry.NewNetworks(clients...), nil
}
