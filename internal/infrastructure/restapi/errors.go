package restapi

import (
	"context"
	"errors"
	"net/http"

	"wallet_tracker/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Коды ошибок API.
const (
	CodeWalletNotConfigured = "WALLET_NOT_CONFIGURED"
	CodeInvalidWallet       = "INVALID_WALLET_ADDRESS"
	CodeInvalidUser         = "INVALID_USER_ID"
	CodeInvalidBody         = "INVALID_REQUEST_BODY"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeUpstream            = "UPSTREAM_UNAVAILABLE"
	CodeTimeout             = "TIMEOUT"
	CodeInternal            = "INTERNAL_ERROR"
)

// statusFor maps a service error to the HTTP status, response code and public message.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, entity.ErrWalletNotConfigured):
		return http.StatusNotFound, CodeWalletNotConfigured, entity.ErrWalletNotConfigured.Error()
	case errors.Is(err, entity.ErrInvalidWalletAddress):
		return http.StatusBadRequest, CodeInvalidWallet, entity.ErrInvalidWalletAddress.Error()
	case errors.Is(err, entity.ErrInvalidUserID):
		return http.StatusBadRequest, CodeInvalidUser, entity.ErrInvalidUserID.Error()
	case errors.Is(err, entity.ErrUpstreamUnavailable):
		return http.StatusBadGateway, CodeUpstream, "upstream service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}
