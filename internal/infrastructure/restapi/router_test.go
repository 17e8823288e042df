package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/infrastructure/configloader"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAddr   = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testSecret = "test-secret"
)

type mockWalletService struct{ mock.Mock }

func (m *mockWalletService) GetWallet(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockWalletService) UpdateWallet(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	args := m.Called(ctx, userID, address)
	return args.Get(0).(entity.WalletRecord), args.Error(1)
}

type mockHistoryService struct{ mock.Mock }

func (m *mockHistoryService) GetBalanceHistory(ctx context.Context, userID string) (entity.EnrichedHistory, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entity.EnrichedHistory), args.Error(1)
}

func (m *mockHistoryService) BuildHistory(ctx context.Context, address string) (entity.EnrichedHistory, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(entity.EnrichedHistory), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(auth configloader.AuthConfig) (*gin.Engine, *mockWalletService, *mockHistoryService) {
	wallets := new(mockWalletService)
	history := new(mockHistoryService)
	router := SetupRouter(RouterConfig{
		CORSOrigins: []string{"http://localhost:3000"},
		Auth:        auth,
		Metrics:     configloader.MetricsConfig{Enabled: true, Path: "/metrics"},
		Swagger:     configloader.SwaggerConfig{Enabled: true, Path: "/swagger"},
	}, NewWalletHandler(wallets, history, zap.NewNop()), zap.NewNop())
	return router, wallets, history
}

func headerAuth() configloader.AuthConfig {
	return configloader.AuthConfig{Mode: configloader.AuthModeHeader, UserHeader: "X-User-ID"}
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthzAndMetrics(t *testing.T) {
	router, _, _ := newTestRouter(headerAuth())

	w := do(router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = do(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSwagger(t *testing.T) {
	router, _, _ := newTestRouter(headerAuth())

	w := do(router, http.MethodGet, swaggerSpecPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/wallet/balance-history")

	w = do(router, http.MethodGet, "/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetWallet(t *testing.T) {
	router, wallets, _ := newTestRouter(headerAuth())
	wallets.On("GetWallet", mock.Anything, "alice").Return(testAddr, nil)
	wallets.On("GetWallet", mock.Anything, "bob").Return("", nil)

	w := do(router, http.MethodGet, "/api/v1/wallet/get_wallet", "", map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"wallet":%q}`, testAddr), w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/wallet/get_wallet", "", map[string]string{"X-User-ID": "bob"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wallet":""}`, w.Body.String())
}

func TestMissingUserHeader(t *testing.T) {
	router, wallets, _ := newTestRouter(headerAuth())

	w := do(router, http.MethodGet, "/api/v1/wallet/get_wallet", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, decodeError(t, w).Code)
	wallets.AssertNotCalled(t, "GetWallet", mock.Anything, mock.Anything)
}

func TestUpdateWallet(t *testing.T) {
	router, wallets, _ := newTestRouter(headerAuth())
	wallets.On("UpdateWallet", mock.Anything, "alice", strings.ToLower(testAddr)).
		Return(entity.WalletRecord{UserID: "alice", Address: testAddr, UpdatedAt: time.Now()}, nil)
	wallets.On("UpdateWallet", mock.Anything, "alice", "0x123").
		Return(entity.WalletRecord{}, fmt.Errorf("%w: %q", entity.ErrInvalidWalletAddress, "0x123"))

	w := do(router, http.MethodPut, "/api/v1/wallet/update_wallet",
		fmt.Sprintf(`{"wallet":%q}`, strings.ToLower(testAddr)), map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"message":"Wallet updated successfully","wallet":%q}`, testAddr), w.Body.String())

	w = do(router, http.MethodPut, "/api/v1/wallet/update_wallet", `{"wallet":"0x123"}`, map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidWallet, decodeError(t, w).Code)

	w = do(router, http.MethodPut, "/api/v1/wallet/update_wallet", `{"wallet":`, map[string]string{"X-User-ID": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidBody, decodeError(t, w).Code)
}

func TestGetBalanceHistory(t *testing.T) {
	price := "2000"
	history := entity.EnrichedHistory{
		Address:  testAddr,
		Currency: "EUR",
		History: []entity.HistoryPoint{
			{Date: "1970-01-01T00:01:40Z", Timestamp: 100, Balance: "1.0", Change: "+1.0", Direction: entity.DirectionIn,
				TxHash: "0xa", ValueInFiat: &price, UnitPrice: &price},
		},
	}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "ok", status: http.StatusOK},
		{name: "not configured", err: entity.ErrWalletNotConfigured, status: http.StatusNotFound, code: CodeWalletNotConfigured},
		{name: "upstream", err: fmt.Errorf("%w: current balance: boom", entity.ErrUpstreamUnavailable), status: http.StatusBadGateway, code: CodeUpstream},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: CodeTimeout},
		{name: "unexpected", err: fmt.Errorf("db down"), status: http.StatusInternalServerError, code: CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, svc := newTestRouter(headerAuth())
			svc.On("GetBalanceHistory", mock.Anything, "alice").Return(history, tt.err)

			w := do(router, http.MethodGet, "/api/v1/wallet/balance-history", "", map[string]string{"X-User-ID": "alice"})

			require.Equal(t, tt.status, w.Code)
			if tt.err == nil {
				assert.Contains(t, w.Body.String(), `"valueInFiat":"2000"`)
				assert.Contains(t, w.Body.String(), `"type":"IN"`)
				return
			}
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Error, "boom", "internal details must not leak")
		})
	}
}

func TestWalletNotConfiguredBody(t *testing.T) {
	router, _, svc := newTestRouter(headerAuth())
	svc.On("GetBalanceHistory", mock.Anything, "alice").Return(entity.EnrichedHistory{}, entity.ErrWalletNotConfigured)

	w := do(router, http.MethodGet, "/api/v1/wallet/balance-history", "", map[string]string{"X-User-ID": "alice"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"wallet not configured","code":"WALLET_NOT_CONFIGURED"}`, w.Body.String())
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	router, wallets, _ := newTestRouter(configloader.AuthConfig{Mode: configloader.AuthModeJWT, JWTSecret: testSecret, UserHeader: "X-User-ID"})
	wallets.On("GetWallet", mock.Anything, "user-42").Return(testAddr, nil)

	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user-42"})
	noSubject := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"name": "x"})
	unsigned := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "user-42"})

	w := do(router, http.MethodGet, "/api/v1/wallet/get_wallet", "", map[string]string{"Authorization": "Bearer " + valid})
	assert.Equal(t, http.StatusOK, w.Code)

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic abc",
		"expired":    "Bearer " + expired,
		"wrong key":  "Bearer " + wrongKey,
		"no subject": "Bearer " + noSubject,
		"alg none":   "Bearer " + unsigned,
		"garbage":    "Bearer abc.def.ghi",
	} {
		w := do(router, http.MethodGet, "/api/v1/wallet/get_wallet", "", map[string]string{"Authorization": header})
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
	wallets.AssertNumberOfCalls(t, "GetWallet", 1)
}

func TestRequestIDIsPropagated(t *testing.T) {
	router, _, _ := newTestRouter(headerAuth())
	w := do(router, http.MethodGet, "/healthz", "", map[string]string{requestIDHeader: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(requestIDHeader))
}
