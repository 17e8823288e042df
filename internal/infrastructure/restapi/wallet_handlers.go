package restapi

import (
	"net/http"

	"wallet_tracker/internal/app/port"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletResponse is returned by get_wallet.
type WalletResponse struct {
	Wallet string `json:"wallet"`
}

// UpdateWalletRequest is the body of update_wallet.
type UpdateWalletRequest struct {
	Wallet string `json:"wallet"`
}

// UpdateWalletResponse is returned by update_wallet.
type UpdateWalletResponse struct {
	Message string `json:"message"`
	Wallet  string `json:"wallet"`
}

// WalletHandler обрабатывает HTTP запросы, связанные с кошельком пользователя.
type WalletHandler struct {
	wallets port.WalletService
	history port.HistoryService
	logger  *zap.Logger
}

// NewWalletHandler создает новый экземпляр WalletHandler.
func NewWalletHandler(wallets port.WalletService, history port.HistoryService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, history: history, logger: logger}
}

// GetWallet returns the saved address of the caller, "" when none is saved.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	wallet, err := h.wallets.GetWallet(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, WalletResponse{Wallet: wallet})
}

// UpdateWallet saves the address from the body for the caller.
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusBadRequest, CodeInvalidBody, "request body must be {\"wallet\": \"0x...\"}")
		return
	}

	record, err := h.wallets.UpdateWallet(c.Request.Context(), c.GetString(ctxUserID), req.Wallet)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, UpdateWalletResponse{Message: "Wallet updated successfully", Wallet: record.Address})
}

// GetBalanceHistory builds the enriched balance history of the caller's wallet.
func (h *WalletHandler) GetBalanceHistory(c *gin.Context) {
	history, err := h.history.GetBalanceHistory(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *WalletHandler) fail(c *gin.Context, err error) {
	status, code, message := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.String("code", code), zap.Error(err))
	}
	abortWithError(c, status, code, message)
}
