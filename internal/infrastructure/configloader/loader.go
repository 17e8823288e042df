package configloader

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"wallet_tracker/internal/pkg/utils"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                   string   `yaml:"port"`
	ReadTimeoutSeconds     int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds    int      `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds     int      `yaml:"idleTimeoutSeconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdownTimeoutSeconds"`
	CORSOrigins            []string `yaml:"corsOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// EtherscanConfig holds the block explorer API settings.
type EtherscanConfig struct {
	APIKey               string  `yaml:"apiKey"`
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
}

// RPCConfig configures the JSON-RPC balance client. URLs override the network's defaults.
type RPCConfig struct {
	URLs                     []string `yaml:"urls"`
	ConnectionTimeoutSeconds int      `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int      `yaml:"callTimeoutSeconds"`
}

// PriceServiceConfig holds configuration for the historical/current price fetching.
type PriceServiceConfig struct {
	Provider             string `yaml:"provider"` // cryptocompare | binance
	Currency             string `yaml:"currency"`
	BatchSize            int    `yaml:"batchSize"`
	BatchDelayMillis     int64  `yaml:"batchDelayMillis"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CurrentPriceRetries  int    `yaml:"currentPriceRetries"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"` // 0 (default) disables the historical price cache
}

// CryptoCompareConfig holds CryptoCompare API specific configurations.
type CryptoCompareConfig struct {
	APIKey               string  `yaml:"apiKey"`
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
}

// BinanceConfig holds Binance market data settings.
type BinanceConfig struct {
	APIKey    string `yaml:"apiKey"`
	SecretKey string `yaml:"secretKey"`
	BaseURL   string `yaml:"baseURL"`
	Symbol    string `yaml:"symbol"` // по умолчанию nativeSymbol+currency, например ETHEUR
	Interval  string `yaml:"interval"`
}

// LedgerConfig controls which transactions produce a ledger entry.
type LedgerConfig struct {
	Policy           string `yaml:"policy"` // all | dust
	DustThresholdWei string `yaml:"dustThresholdWei"`
}

// HistoryServiceConfig holds settings of the balance history pipeline.
type HistoryServiceConfig struct {
	BalanceSource          string `yaml:"balanceSource"` // etherscan | rpc
	PipelineTimeoutSeconds int    `yaml:"pipelineTimeoutSeconds"`
}

// PostgresConfig holds database-specific configurations.
type PostgresConfig struct {
	URL                 string `yaml:"url"`
	MaxOpenConns        int    `yaml:"maxOpenConns"`
	MaxIdleConns        int    `yaml:"maxIdleConns"`
	QueryTimeoutSeconds int    `yaml:"queryTimeoutSeconds"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// WalletStoreConfig selects and configures the wallet record backend.
type WalletStoreConfig struct {
	Driver   string         `yaml:"driver"` // memory | postgres | redis
	SeedFile string         `yaml:"seedFile"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// AuthConfig describes how the user id is resolved for a request.
type AuthConfig struct {
	Mode       string `yaml:"mode"` // jwt | header
	JWTSecret  string `yaml:"jwtSecret"`
	UserHeader string `yaml:"userHeader"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SwaggerConfig controls the Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server        ServerConfig         `yaml:"server"`
	Logging       LoggingConfig        `yaml:"logging"`
	Network       string               `yaml:"network"`
	Etherscan     EtherscanConfig      `yaml:"etherscan"`
	RPC           RPCConfig            `yaml:"rpc"`
	PriceSvc      PriceServiceConfig   `yaml:"priceService"`
	CryptoCompare CryptoCompareConfig  `yaml:"cryptoCompare"`
	Binance       BinanceConfig        `yaml:"binance"`
	Ledger        LedgerConfig         `yaml:"ledger"`
	HistorySvc    HistoryServiceConfig `yaml:"historyService"`
	WalletStore   WalletStoreConfig    `yaml:"walletStore"`
	Auth          AuthConfig           `yaml:"auth"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	Swagger       SwaggerConfig        `yaml:"swagger"`
}

// Допустимые значения перечислений.
const (
	LedgerPolicyAll  = "all"
	LedgerPolicyDust = "dust"

	PriceProviderCryptoCompare = "cryptocompare"
	PriceProviderBinance       = "binance"

	BalanceSourceEtherscan = "etherscan"
	BalanceSourceRPC       = "rpc"

	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"

	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

// Option changes the parsed configuration before defaults are applied.
type Option func(*Config)

// Load reads the YAML configuration file from the given path, applies
// environment overrides for secrets and fills in defaults.
func Load(path string, opts ...Option) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data, opts...)
	if err != nil {
		logrus.Errorf("Invalid configuration in %s: %v", path, err)
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load without the file access.
func Parse(data []byte, opts ...Option) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	applyEnv(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv позволяет не хранить секреты в файле конфигурации.
func applyEnv(cfg *Config) {
	cfg.Etherscan.APIKey = utils.GetEnv("ETHERSCAN_API_KEY", cfg.Etherscan.APIKey)
	cfg.CryptoCompare.APIKey = utils.GetEnv("CRYPTOCOMPARE_API_KEY", cfg.CryptoCompare.APIKey)
	cfg.Binance.APIKey = utils.GetEnv("BINANCE_API_KEY", cfg.Binance.APIKey)
	cfg.Binance.SecretKey = utils.GetEnv("BINANCE_SECRET_KEY", cfg.Binance.SecretKey)
	cfg.Auth.JWTSecret = utils.GetEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.WalletStore.Postgres.URL = utils.GetEnv("DATABASE_URL", cfg.WalletStore.Postgres.URL)
	cfg.WalletStore.Redis.Addr = utils.GetEnv("REDIS_ADDR", cfg.WalletStore.Redis.Addr)
	cfg.Logging.Level = utils.GetEnv("LOG_LEVEL", cfg.Logging.Level)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 90
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Network == "" {
		cfg.Network = "ethereum"
	}

	if cfg.Etherscan.BaseURL == "" {
		cfg.Etherscan.BaseURL = "https://api.etherscan.io/v2/api"
	}
	if cfg.Etherscan.RequestTimeoutMillis <= 0 {
		cfg.Etherscan.RequestTimeoutMillis = 15000
	}
	if cfg.Etherscan.RequestsPerSecond <= 0 {
		cfg.Etherscan.RequestsPerSecond = 5 // лимит бесплатного ключа
	}
	if cfg.Etherscan.Burst <= 0 {
		cfg.Etherscan.Burst = 1
	}

	if cfg.RPC.ConnectionTimeoutSeconds <= 0 {
		cfg.RPC.ConnectionTimeoutSeconds = 10
	}
	if cfg.RPC.CallTimeoutSeconds <= 0 {
		cfg.RPC.CallTimeoutSeconds = 10
	}

	if cfg.PriceSvc.Provider == "" {
		cfg.PriceSvc.Provider = PriceProviderCryptoCompare
	}
	if cfg.PriceSvc.Currency == "" {
		cfg.PriceSvc.Currency = "EUR"
	}
	cfg.PriceSvc.Currency = strings.ToUpper(cfg.PriceSvc.Currency)
	if cfg.PriceSvc.BatchSize <= 0 {
		cfg.PriceSvc.BatchSize = 15
		logrus.Infof("priceService.batchSize not set, defaulting to %d", cfg.PriceSvc.BatchSize)
	}
	if cfg.PriceSvc.BatchDelayMillis < 0 {
		cfg.PriceSvc.BatchDelayMillis = 0
	} else if cfg.PriceSvc.BatchDelayMillis == 0 {
		cfg.PriceSvc.BatchDelayMillis = 300
		logrus.Infof("priceService.batchDelayMillis not set, defaulting to %d ms", cfg.PriceSvc.BatchDelayMillis)
	}
	if cfg.PriceSvc.RequestTimeoutMillis <= 0 {
		cfg.PriceSvc.RequestTimeoutMillis = 10000
	}
	if cfg.PriceSvc.CacheTTLMinutes < 0 {
		cfg.PriceSvc.CacheTTLMinutes = 0
	}
	if cfg.PriceSvc.CurrentPriceRetries < 0 {
		cfg.PriceSvc.CurrentPriceRetries = 0
	}

	if cfg.CryptoCompare.BaseURL == "" {
		cfg.CryptoCompare.BaseURL = "https://min-api.cryptocompare.com"
	}
	if cfg.CryptoCompare.RequestTimeoutMillis <= 0 {
		cfg.CryptoCompare.RequestTimeoutMillis = cfg.PriceSvc.RequestTimeoutMillis
	}
	if cfg.CryptoCompare.RequestsPerSecond <= 0 {
		cfg.CryptoCompare.RequestsPerSecond = 50
	}
	if cfg.CryptoCompare.Burst <= 0 {
		cfg.CryptoCompare.Burst = cfg.PriceSvc.BatchSize
	}

	if cfg.Binance.Interval == "" {
		cfg.Binance.Interval = "1h"
	}

	if cfg.Ledger.Policy == "" {
		cfg.Ledger.Policy = LedgerPolicyAll
	}
	if cfg.Ledger.DustThresholdWei == "" {
		cfg.Ledger.DustThresholdWei = "1000000000000" // 0.000001 ETH
	}

	if cfg.HistorySvc.BalanceSource == "" {
		cfg.HistorySvc.BalanceSource = BalanceSourceEtherscan
	}
	if cfg.HistorySvc.PipelineTimeoutSeconds <= 0 {
		cfg.HistorySvc.PipelineTimeoutSeconds = 60
	}

	if cfg.WalletStore.Driver == "" {
		cfg.WalletStore.Driver = StoreDriverMemory
	}
	if cfg.WalletStore.Postgres.MaxOpenConns <= 0 {
		cfg.WalletStore.Postgres.MaxOpenConns = 10
	}
	if cfg.WalletStore.Postgres.MaxIdleConns <= 0 {
		cfg.WalletStore.Postgres.MaxIdleConns = 5
	}
	if cfg.WalletStore.Postgres.QueryTimeoutSeconds <= 0 {
		cfg.WalletStore.Postgres.QueryTimeoutSeconds = 5
	}
	if cfg.WalletStore.Redis.Addr == "" {
		cfg.WalletStore.Redis.Addr = "localhost:6379"
	}
	if cfg.WalletStore.Redis.KeyPrefix == "" {
		cfg.WalletStore.Redis.KeyPrefix = "wallet:"
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeJWT
	}
	if cfg.Auth.UserHeader == "" {
		cfg.Auth.UserHeader = "X-User-ID"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Swagger.Path == "" {
		cfg.Swagger.Path = "/swagger"
	}
}

// Validate checks enumerations and values the service cannot start without.
func (c *Config) Validate() error {
	switch c.Ledger.Policy {
	case LedgerPolicyAll, LedgerPolicyDust:
	default:
		return fmt.Errorf("ledger.policy must be %q or %q, got %q", LedgerPolicyAll, LedgerPolicyDust, c.Ledger.Policy)
	}
	if threshold, ok := new(big.Int).SetString(c.Ledger.DustThresholdWei, 10); !ok || threshold.Sign() < 0 {
		return fmt.Errorf("ledger.dustThresholdWei must be a non-negative integer, got %q", c.Ledger.DustThresholdWei)
	}

	switch c.PriceSvc.Provider {
	case PriceProviderCryptoCompare, PriceProviderBinance:
	default:
		return fmt.Errorf("priceService.provider must be %q or %q, got %q", PriceProviderCryptoCompare, PriceProviderBinance, c.PriceSvc.Provider)
	}

	switch c.HistorySvc.BalanceSource {
	case BalanceSourceEtherscan, BalanceSourceRPC:
	default:
		return fmt.Errorf("historyService.balanceSource must be %q or %q, got %q", BalanceSourceEtherscan, BalanceSourceRPC, c.HistorySvc.BalanceSource)
	}

	switch c.WalletStore.Driver {
	case StoreDriverMemory, StoreDriverRedis:
	case StoreDriverPostgres:
		if c.WalletStore.Postgres.URL == "" {
			return fmt.Errorf("walletStore.postgres.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("walletStore.driver must be one of memory, postgres, redis, got %q", c.WalletStore.Driver)
	}

	switch c.Auth.Mode {
	case AuthModeHeader:
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwtSecret (or JWT_SECRET) is required for jwt auth mode")
		}
	default:
		return fmt.Errorf("auth.mode must be %q or %q, got %q", AuthModeJWT, AuthModeHeader, c.Auth.Mode)
	}

	if c.Etherscan.APIKey == "" {
		logrus.Warn("etherscan.apiKey is empty, requests will be heavily rate limited")
	}
	return nil
}
