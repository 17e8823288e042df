package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wallet_tracker/internal/domain/entity"
	apientity "wallet_tracker/internal/entity"
	"wallet_tracker/internal/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const upstreamCryptoCompare = "cryptocompare"

// CryptoCompareClient fetches hourly closes and spot prices for one symbol pair.
type CryptoCompareClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	fsym    string
	tsym    string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCryptoCompareClient creates a client pricing fsym in tsym, e.g. ETH in EUR. limiter may be nil.
func NewCryptoCompareClient(baseURL, apiKey, fsym, tsym string, timeout time.Duration, limiter *rate.Limiter, logger *zap.Logger) *CryptoCompareClient {
	return &CryptoCompareClient{
		client:  &fasthttp.Client{Name: "wallet_tracker"},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		fsym:    strings.ToUpper(fsym),
		tsym:    strings.ToUpper(tsym),
		timeout: timeout,
		limiter: limiter,
		logger:  logger.Named("CryptoCompareClient"),
	}
}

// Name implements port.PriceClient.
func (c *CryptoCompareClient) Name() string { return upstreamCryptoCompare }

func (c *CryptoCompareClient) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Apikey " + c.apiKey}
}

func (c *CryptoCompareClient) withKey(params url.Values) url.Values {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return params
}

// GetHistoricalPrice returns the close of the latest hourly candle at or before ts.
func (c *CryptoCompareClient) GetHistoricalPrice(ctx context.Context, ts int64) (sample entity.PriceSample, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamCryptoCompare, "histohour", start, err) }()

	params := c.withKey(url.Values{})
	params.Set("fsym", c.fsym)
	params.Set("tsym", c.tsym)
	params.Set("limit", "1")
	params.Set("toTs", strconv.FormatInt(ts, 10))
	requestURL := c.baseURL + "/data/v2/histohour?" + params.Encode()

	var resp apientity.CryptoCompareHistoResponse
	if err = getJSON(ctx, c.client, c.limiter, requestURL, c.headers(), c.timeout, &resp); err != nil {
		c.logger.Debug("Historical price request failed", zap.Int64("ts", ts), zap.Error(err))
		return entity.PriceSample{}, err
	}
	if resp.Response == "Error" {
		return entity.PriceSample{}, fmt.Errorf("cryptocompare histohour at %d: %s", ts, resp.Message)
	}

	found := false
	for _, candle := range resp.Data.Data {
		// до листинга монеты API возвращает свечи с нулевыми ценами
		if candle.Time > ts || !candle.Close.IsPositive() {
			continue
		}
		if !found || candle.Time > sample.Timestamp {
			sample = entity.PriceSample{Timestamp: candle.Time, Close: candle.Close}
			found = true
		}
	}
	if !found {
		return entity.PriceSample{}, fmt.Errorf("%w: no %s/%s candle at or before %d", entity.ErrPriceUnavailable, c.fsym, c.tsym, ts)
	}
	return sample, nil
}

// GetCurrentPrice returns the spot price from /data/price.
func (c *CryptoCompareClient) GetCurrentPrice(ctx context.Context) (price decimal.Decimal, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamCryptoCompare, "price", start, err) }()

	params := c.withKey(url.Values{})
	params.Set("fsym", c.fsym)
	params.Set("tsyms", c.tsym)
	requestURL := c.baseURL + "/data/price?" + params.Encode()

	var raw map[string]jsoniter.RawMessage
	if err = getJSON(ctx, c.client, c.limiter, requestURL, c.headers(), c.timeout, &raw); err != nil {
		c.logger.Error("Current price request failed", zap.String("pair", c.fsym+"/"+c.tsym), zap.Error(err))
		return decimal.Zero, err
	}

	if rawStatus, isStatus := raw["Response"]; isStatus {
		var status, message string
		_ = json.Unmarshal(rawStatus, &status)
		_ = json.Unmarshal(raw["Message"], &message)
		if status == "Error" {
			return decimal.Zero, fmt.Errorf("cryptocompare price %s/%s: %s", c.fsym, c.tsym, message)
		}
	}

	value, ok := raw[c.tsym]
	if !ok {
		return decimal.Zero, fmt.Errorf("cryptocompare price response has no %s quote", c.tsym)
	}
	if err = json.Unmarshal(value, &price); err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s quote %s: %w", c.tsym, string(value), err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("cryptocompare returned non-positive %s/%s price %s", c.fsym, c.tsym, price)
	}
	return price, nil
}
