package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"produtos-api/internal/cache"
	"produtos-api/internal/models"
	"produtos-api/internal/services"
)

const (
	productKeyPrefix = "produto:"
	listKeyPrefix    = "produtos:list:"
)

type ProductHandler struct {
	service       *services.ProductService
	cache         *cache.Cache
	maxImageBytes int64
}

func NewProductHandler(service *services.ProductService, c *cache.Cache, maxImageBytes int64) *ProductHandler {
	RegisterValidators()
	return &ProductHandler{
		service:       service,
		cache:         c,
		maxImageBytes: maxImageBytes,
	}
}

// listQuery son los parámetros aceptados por GET /produtos
type listQuery struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=10" binding:"min=1"`
	Category  string `form:"category"`
	StoreID   string `form:"storeId"`
	Available string `form:"available" binding:"omitempty,oneof=true false"`
	SortBy    string `form:"sortBy,default=createdAt" binding:"oneof=name price rating createdAt category"`
	SortOrder string `form:"sortOrder,default=desc" binding:"oneof=asc desc"`
}

func (q listQuery) toModel() models.ProductQuery {
	query := models.ProductQuery{
		Page:      q.Page,
		Limit:     q.Limit,
		Category:  q.Category,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if q.StoreID != "" {
		storeID := q.StoreID
		query.StoreID = &storeID
	}
	if q.Available != "" {
		available := q.Available == "true"
		query.Available = &available
	}
	return query
}

// CreateProduct crea un produto (multipart con imagen opcional, o JSON)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBind(&input); err != nil {
		c.Error(bindError(err))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		c.Error(err)
		return
	}

	product, err := h.service.Create(c.Request.Context(), input, image)
	if err != nil {
		c.Error(err)
		return
	}

	// Invalidar caché de listados
	h.cache.DeleteByPrefix(listKeyPrefix)

	c.JSON(http.StatusCreated, product)
}

// GetProduct obtiene un produto por ID (con caché)
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	cacheKey := productKeyPrefix + id

	if cached, found := h.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	product, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	h.cache.Set(cacheKey, product)
	c.JSON(http.StatusOK, product)
}

// ListProducts lista produtos con paginación y filtros (con caché)
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(bindError(err))
		return
	}

	cacheKey := fmt.Sprintf(
		"%sp%d_l%d_cat:%s_store:%s_av:%s_sort:%s_%s",
		listKeyPrefix, q.Page, q.Limit, q.Category, q.StoreID, q.Available, q.SortBy, q.SortOrder,
	)

	if cached, found := h.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	list, err := h.service.List(c.Request.Context(), q.toModel())
	if err != nil {
		c.Error(err)
		return
	}

	h.cache.Set(cacheKey, list)
	c.JSON(http.StatusOK, list)
}

// UpdateProduct actualiza parcialmente un produto
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var update models.ProductUpdate
	if err := c.ShouldBind(&update); err != nil {
		c.Error(bindError(err))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		c.Error(err)
		return
	}

	product, err := h.service.Update(c.Request.Context(), id, update, image)
	if err != nil {
		c.Error(err)
		return
	}

	h.invalidate(id)
	c.JSON(http.StatusOK, product)
}

// DeleteProduct borra el produto y su imagen
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	h.invalidate(id)
	c.JSON(http.StatusOK, gin.H{"message": "produto deleted"})
}

// Invalidar caché relacionado
func (h *ProductHandler) invalidate(id string) {
	h.cache.Delete(productKeyPrefix + id)
	h.cache.DeleteByPrefix(listKeyPrefix)
}

// readImage lee el archivo "image" del multipart. Sin multipart o sin archivo retorna nil.
func (h *ProductHandler) readImage(c *gin.Context) (*services.ImageUpload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, bindError(err)
	}

	if header.Size > h.maxImageBytes {
		return nil, models.NewValidationError("image", fmt.Sprintf("image exceeds the %d bytes limit", h.maxImageBytes))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &services.ImageUpload{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}
