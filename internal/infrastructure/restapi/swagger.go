package restapi

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed docs/swagger.yaml
var swaggerSpec []byte

const swaggerSpecPath = "/docs/swagger.yaml"

// registerSwagger serves the OpenAPI document and the Swagger UI under basePath.
// The document lives outside basePath: gin does not allow a static route next to a catch-all.
func registerSwagger(router *gin.Engine, basePath string) {
	basePath = "/" + strings.Trim(basePath, "/")
	specPath := swaggerSpecPath

	router.GET(specPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", swaggerSpec)
	})
	router.GET(basePath+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(specPath)))
}
