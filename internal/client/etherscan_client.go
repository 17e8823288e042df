package client

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wallet_tracker/internal/domain/entity"
	apientity "wallet_tracker/internal/entity"
	"wallet_tracker/internal/metrics"
	"wallet_tracker/internal/pkg/utils"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	upstreamEtherscan = "etherscan"

	etherscanStartBlock = "0"
	etherscanEndBlock   = "99999999"
)

// EtherscanClient talks to the Etherscan v2 account API for one chain.
// It serves both as the ledger client and as a current-balance source.
type EtherscanClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	chainID uint64
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewEtherscanClient creates a new instance of EtherscanClient. limiter may be nil.
func NewEtherscanClient(baseURL, apiKey string, chainID uint64, timeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *EtherscanClient {
	return &EtherscanClient{
		client:  &fasthttp.Client{Name: "wallet_tracker"},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		chainID: chainID,
		timeout: timeout,
		limiter: limiter,
		logger:  logger.Named("EtherscanClient"),
	}
}

func (c *EtherscanClient) requestURL(params url.Values) string {
	params.Set("chainid", strconv.FormatUint(c.chainID, 10))
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	return c.baseURL + "?" + params.Encode()
}

func (c *EtherscanClient) call(ctx context.Context, action string, params url.Values) (apientity.EtherscanResponse, error) {
	params.Set("module", "account")
	params.Set("action", action)
	requestURL := c.requestURL(params)

	var resp apientity.EtherscanResponse
	start := time.Now()
	err := getJSON(ctx, c.client, c.limiter, requestURL, nil, c.timeout, &resp)
	metrics.ObserveUpstream(upstreamEtherscan, action, start, err)
	if err != nil {
		c.logger.Error("Etherscan request failed", zap.String("action", action), zap.String("address", params.Get("address")), zap.Error(err))
		return resp, err
	}
	return resp, nil
}

// GetTransactions implements port.LedgerClient.
func (c *EtherscanClient) GetTransactions(ctx context.Context, address string, category entity.TxCategory) ([]entity.RawTransaction, error) {
	var action string
	switch category {
	case entity.TxCategoryNormal:
		action = "txlist"
	case entity.TxCategoryInternal:
		action = "txlistinternal"
	default:
		return nil, fmt.Errorf("unknown transaction category %q", category)
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("startblock", etherscanStartBlock)
	params.Set("endblock", etherscanEndBlock)
	params.Set("sort", "asc")

	resp, err := c.call(ctx, action, params)
	if err != nil {
		return nil, err
	}

	if resp.Status != "1" {
		// status 0 с пустым результатом — это просто адрес без транзакций
		if strings.HasPrefix(strings.ToLower(resp.Message), "no transactions found") {
			return []entity.RawTransaction{}, nil
		}
		return nil, fmt.Errorf("etherscan %s for %s: %s (%s)", action, address, resp.Message, resultText(resp))
	}

	var records []apientity.EtherscanTx
	if err := json.Unmarshal(resp.Result, &records); err != nil {
		return nil, fmt.Errorf("failed to decode etherscan %s result: %w", action, err)
	}

	txs := make([]entity.RawTransaction, 0, len(records))
	for _, rec := range records {
		tx, err := toRawTransaction(rec, category)
		if err != nil {
			c.logger.Warn("Skipping malformed transaction", zap.String("action", action), zap.String("hash", rec.Hash), zap.Error(err))
			continue
		}
		txs = append(txs, tx)
	}

	c.logger.Debug("Fetched transactions", zap.String("action", action), zap.String("address", address), zap.Int("count", len(txs)))
	return txs, nil
}

// GetNativeBalance implements port.BalanceClient using action=balance.
func (c *EtherscanClient) GetNativeBalance(ctx context.Context, address string) (*big.Int, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("tag", "latest")

	resp, err := c.call(ctx, "balance", params)
	if err != nil {
		return nil, err
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("etherscan balance for %s: %s (%s)", address, resp.Message, resultText(resp))
	}

	raw := resultText(resp)
	balance, ok := utils.ParseBigInt(raw)
	if !ok {
		return nil, fmt.Errorf("etherscan balance for %s is not an integer: %q", address, raw)
	}
	return balance, nil
}

// resultText returns the result field when it is a JSON string (error text or balance).
func resultText(resp apientity.EtherscanResponse) string {
	var s string
	if err := json.Unmarshal(resp.Result, &s); err != nil {
		return truncate(string(resp.Result), 200)
	}
	return s
}

// toRawTransaction validates one explorer record. Value and timestamp are mandatory,
// unparseable gas fields become nil (zero gas cost).
func toRawTransaction(rec apientity.EtherscanTx, category entity.TxCategory) (entity.RawTransaction, error) {
	if rec.Hash == "" {
		return entity.RawTransaction{}, fmt.Errorf("missing hash")
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rec.TimeStamp), 10, 64)
	if err != nil || ts < 0 {
		return entity.RawTransaction{}, fmt.Errorf("invalid timeStamp %q", rec.TimeStamp)
	}
	value, ok := utils.ParseBigInt(rec.Value)
	if !ok {
		return entity.RawTransaction{}, fmt.Errorf("invalid value %q", rec.Value)
	}

	tx := entity.RawTransaction{
		Hash:      rec.Hash,
		Timestamp: ts,
		From:      rec.From,
		To:        rec.To,
		Value:     value,
		IsError:   rec.IsError == "1",
		Category:  category,
	}
	if gasUsed, ok := utils.ParseBigInt(rec.GasUsed); ok {
		tx.GasUsed = gasUsed
	}
	if gasPrice, ok := utils.ParseBigInt(rec.GasPrice); ok {
		tx.GasPrice = gasPrice
	}
	return tx, nil
}
