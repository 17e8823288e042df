package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const upstreamRPC = "rpc"

// EVMClient implements port.BalanceClient over JSON-RPC (eth_getBalance).
// The connection is dialed lazily, trying the primary RPC URL and then the fallbacks.
type EVMClient struct {
	netDef            entity.NetworkDefinition
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration

	mu        sync.Mutex
	ethClient *ethclient.Client
	activeURL string
}

var _ port.BalanceClient = (*EVMClient)(nil)

// NewEVMClient creates a new EVM client for the given network definition.
func NewEVMClient(netDef entity.NetworkDefinition, log port.Logger, connectionTimeout, rpcCallTimeout time.Duration) *EVMClient {
	return &EVMClient{
		netDef:            netDef,
		logger:            log,
		connectionTimeout: connectionTimeout,
		rpcCallTimeout:    rpcCallTimeout,
	}
}

// connect returns the cached client or dials the endpoints in order.
func (c *EVMClient) connect(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ethClient != nil {
		return c.ethClient, nil
	}

	rpcURLs := c.netDef.RPCURLs()
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured for network %s", c.netDef.Name)
	}

	var lastErr error
	for _, rpcURL := range rpcURLs {
		dialCtx, cancel := context.WithTimeout(ctx, c.connectionTimeout)
		client, err := ethclient.DialContext(dialCtx, rpcURL)
		cancel()
		if err == nil {
			c.ethClient = client
			c.activeURL = rpcURL
			c.logger.Info("Connected to RPC endpoint", "network", c.netDef.Identifier, "url", rpcURL)
			return client, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
		c.logger.Warn("RPC endpoint unavailable, trying next", "network", c.netDef.Identifier, "url", rpcURL, "error", err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", c.netDef.Name, lastErr)
}

// reset drops a broken connection so the next call redials.
func (c *EVMClient) reset(broken *ethclient.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ethClient == broken && broken != nil {
		broken.Close()
		c.ethClient = nil
		c.activeURL = ""
	}
}

// GetNativeBalance fetches the latest native balance of walletAddress in wei.
func (c *EVMClient) GetNativeBalance(ctx context.Context, walletAddress string) (balance *big.Int, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamRPC, "balance", start, err) }()

	if !common.IsHexAddress(walletAddress) {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidWalletAddress, walletAddress)
	}

	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	balance, err = client.BalanceAt(callCtx, common.HexToAddress(walletAddress), nil)
	if err != nil {
		c.reset(client)
		return nil, fmt.Errorf("eth_getBalance for %s on %s failed: %w", walletAddress, c.netDef.Name, err)
	}
	return balance, nil
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close releases the underlying connection.
func (c *EVMClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ethClient != nil {
		c.ethClient.Close()
		c.ethClient = nil
	}
}
