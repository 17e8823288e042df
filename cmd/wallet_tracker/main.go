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

	"wallet_tracker/internal/app/provider"
	"wallet_tracker/internal/app/service"
	"wallet_tracker/internal/infrastructure/configloader"
	networkdefinition "wallet_tracker/internal/infrastructure/network/definition"
	"wallet_tracker/internal/infrastructure/restapi"
	"wallet_tracker/internal/infrastructure/walletloader"
	"wallet_tracker/internal/infrastructure/walletstore"
	"wallet_tracker/internal/pkg/logger"
	"wallet_tracker/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewZap(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger.InitSlog(zapLogger)

	logger.Info("Wallet tracker is starting", "config", cfgPath)

	appLogger := logger.NewSlogAdapter()
	netDef, err := networkdefinition.NewNetworkDefinitionProvider(appLogger).Resolve(cfg.Network, cfg.RPC.URLs)
	if err != nil {
		logger.Fatal("Failed to resolve network", "network", cfg.Network, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancelStartup := context.WithTimeout(ctx, 15*time.Second)
	store, err := walletstore.New(startupCtx, cfg.WalletStore, logger.NewSlogAdapter("component", "WalletStore"))
	cancelStartup()
	if err != nil {
		logger.Fatal("Failed to open wallet store", "driver", cfg.WalletStore.Driver, "error", err)
	}
	defer store.Close()

	wallets := service.NewWalletService(store, logger.NewSlogAdapter("component", "WalletService"))

	if cfg.WalletStore.SeedFile != "" {
		loader := walletloader.NewWalletFileLoader(cfg.WalletStore.SeedFile, appLogger)
		if _, err := loader.Seed(ctx, wallets); err != nil {
			logger.Fatal("Failed to seed wallets", "file", cfg.WalletStore.SeedFile, "error", err)
		}
	}

	history, err := provider.NewHistory(cfg, netDef, store, zapLogger)
	if err != nil {
		logger.Fatal("Failed to build history pipeline", "error", err)
	}
	defer history.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := restapi.SetupRouter(restapi.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Auth:        cfg.Auth,
		Metrics:     cfg.Metrics,
		Swagger:     cfg.Swagger,
	}, restapi.NewWalletHandler(wallets, history.Service, zapLogger.Named("api")), zapLogger.Named("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port), zap.String("auth_mode", cfg.Auth.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
