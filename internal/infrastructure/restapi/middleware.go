package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wallet_tracker/internal/infrastructure/configloader"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxUserID       = "userID"
	ctxRequestID    = "requestID"
)

// ZapLoggerMiddleware logs every request with its id, status and latency.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString(ctxUserID); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request served", fields...)
		}
	}
}

// AuthMiddleware resolves the user id of the request and stores it in the gin context.
// In jwt mode the id is the subject of an HS256 bearer token; in header mode it is
// taken as-is from a header set by a trusted gateway.
func AuthMiddleware(cfg configloader.AuthConfig) gin.HandlerFunc {
	if cfg.Mode == configloader.AuthModeHeader {
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader(cfg.UserHeader))
			if userID == "" {
				abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, fmt.Sprintf("missing %s header", cfg.UserHeader))
				return
			}
			c.Set(ctxUserID, userID)
			c.Next()
		}
	}

	secret := []byte(cfg.JWTSecret)
	return func(c *gin.Context) {
		userID, err := subjectFromBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			_ = c.Error(err)
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "invalid or missing token")
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func subjectFromBearer(header string, secret []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}
