package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"produtos-api/internal/handlers"
)

// StaticConfig indica dónde se sirven las imágenes guardadas
type StaticConfig struct {
	PublicPath string
	Dir        string
}

func RegisterRoutes(router *gin.Engine, h *handlers.ProductHandler, static StaticConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if static.PublicPath != "" {
		router.Static(static.PublicPath, static.Dir)
	}

	produtos := router.Group("/produtos")
	{
		produtos.POST("", h.CreateProduct)
		produtos.GET("", h.ListProducts)
		produtos.GET("/:id", h.GetProduct)
		produtos.PUT("/:id", h.UpdateProduct)
		produtos.DELETE("/:id", h.DeleteProduct)
	}
}
