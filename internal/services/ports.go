package services

//go:generate mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks

import (
	"context"

	"produtos-api/internal/models"
)

// ProductRepository es el puerto de persistencia de produtos
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindAll(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	NameExists(ctx context.Context, name string, storeID *string, excludeID string) (bool, error)
	SlugExists(ctx context.Context, slug string, storeID *string, excludeID string) (bool, error)
}

// ImageStore guarda y borra las imágenes de produtos. Delete nunca falla.
type ImageStore interface {
	Store(ctx context.Context, data []byte, mimeType string) (string, error)
	Delete(ctx context.Context, storedPath string)
}
