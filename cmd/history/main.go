// Command history prints the enriched balance history of one address as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wallet_tracker/internal/app/provider"
	"wallet_tracker/internal/infrastructure/configloader"
	networkdefinition "wallet_tracker/internal/infrastructure/network/definition"
	"wallet_tracker/internal/infrastructure/walletstore"
	"wallet_tracker/internal/pkg/logger"
	"wallet_tracker/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

func main() {
	cfgPath := flag.String("config", utils.GetEnv("CONFIG_PATH", "config/config.yml"), "path to the YAML config")
	address := flag.String("address", "", "wallet address (0x...)")
	network := flag.String("network", "", "network identifier, overrides the config")
	currency := flag.String("currency", "", "fiat currency, overrides the config")
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "usage: history -address 0x... [-config path] [-network id] [-currency EUR]")
		os.Exit(2)
	}

	if err := run(*cfgPath, *address, *network, *currency); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, address, network, currency string) error {
	cfg, err := configloader.Load(cfgPath, func(c *configloader.Config) {
		// без HTTP слоя токены не нужны
		c.Auth.Mode = configloader.AuthModeHeader
		if network != "" {
			c.Network = network
		}
		if currency != "" {
			c.PriceSvc.Currency = currency
		}
	})
	if err != nil {
		return err
	}

	// логи идут в stderr, stdout остается под JSON
	zapLogger, err := logger.NewZap(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zapLogger.Sync()
	logger.InitSlog(zapLogger)

	netDef, err := networkdefinition.NewNetworkDefinitionProvider(logger.NewSlogAdapter()).Resolve(cfg.Network, cfg.RPC.URLs)
	if err != nil {
		return err
	}

	history, err := provider.NewHistory(cfg, netDef, walletstore.NewMemoryStore(), zapLogger)
	if err != nil {
		return err
	}
	defer history.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := history.Service.BuildHistory(ctx, address)
	if err != nil {
		return err
	}

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
