package restapi

import (
	"net/http"

	"wallet_tracker/internal/infrastructure/configloader"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds what SetupRouter needs besides the handlers.
type RouterConfig struct {
	CORSOrigins []string
	Auth        configloader.AuthConfig
	Metrics     configloader.MetricsConfig
	Swagger     configloader.SwaggerConfig
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(cfg RouterConfig, walletHandler *WalletHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", cfg.Auth.UserHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
		logger.Info("Prometheus metrics endpoint enabled", zap.String("path", cfg.Metrics.Path))
	}

	if cfg.Swagger.Enabled {
		registerSwagger(router, cfg.Swagger.Path)
		logger.Info("Swagger UI enabled", zap.String("path", cfg.Swagger.Path+"/index.html"))
	}

	// Группа для API v1
	wallet := router.Group("/api/v1/wallet", AuthMiddleware(cfg.Auth))
	{
		wallet.GET("/get_wallet", walletHandler.GetWallet)
		wallet.PUT("/update_wallet", walletHandler.UpdateWallet)
		wallet.GET("/balance-history", walletHandler.GetBalanceHistory)
	}

	return router
}
