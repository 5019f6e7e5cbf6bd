package routes

import (
	"github.com/gin-gonic/gin"

	"produtos-api/internal/handlers"
	"produtos-api/internal/pkg/clock"
)

// NewRouter arma el engine con logger, recovery, el manejador de errores y las rutas
func NewRouter(h *handlers.ProductHandler, static StaticConfig, clk clock.Clock) *gin.Engine {
	router := gin.Default()
	router.Use(handlers.ErrorHandler(clk))
	RegisterRoutes(router, h, static)
	return router
}
