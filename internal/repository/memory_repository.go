package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
)

// MemoryProductRepository guarda los produtos en memoria. Aplica las mismas
// restricciones únicas que los índices de Mongo: (name, storeId) sin distinguir
// mayúsculas y (slug, storeId).
type MemoryProductRepository struct {
	products map[primitive.ObjectID]models.Product
	mu       sync.RWMutex
	clock    clock.Clock
}

func NewMemoryProductRepository(clk clock.Clock) *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]models.Product),
		clock:    clk,
	}
}

func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(*product, primitive.NilObjectID); err != nil {
		return err
	}

	now := r.clock.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}

	product, ok := r.products[objID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return &product, nil
}

func (r *MemoryProductRepository) FindAll(_ context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}

	slices.SortFunc(matched, func(a, b models.Product) int {
		c := compareField(a, b, q.SortBy)
		if c == 0 {
			c = strings.Compare(a.ID.Hex(), b.ID.Hex())
		}
		if q.SortOrder == "asc" {
			return c
		}
		return -c
	})

	total := int64(len(matched))
	start := min(q.Skip(), total)
	end := min(start+int64(q.Limit), total)

	return matched[start:end], total, nil
}

func (r *MemoryProductRepository) Update(_ context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}

	current, ok := r.products[objID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	update.Apply(&current)
	if err := r.checkUnique(current, objID); err != nil {
		return nil, err
	}

	current.UpdatedAt = r.clock.Now()
	r.products[objID] = current
	return &current, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}
	if _, ok := r.products[objID]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	delete(r.products, objID)
	return nil
}

func (r *MemoryProductRepository) NameExists(_ context.Context, name string, storeID *string, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.anyInScope(storeID, excludeID, sameScopeFold, func(p models.Product) bool {
		return strings.EqualFold(p.Name, name)
	}), nil
}

func (r *MemoryProductRepository) SlugExists(_ context.Context, slug string, storeID *string, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.anyInScope(storeID, excludeID, sameScope, func(p models.Product) bool {
		return p.Slug == slug
	}), nil
}

// Len retorna la cantidad de produtos guardados
func (r *MemoryProductRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

func (r *MemoryProductRepository) anyInScope(storeID *string, excludeID string, scope func(a, b *string) bool, pred func(models.Product) bool) bool {
	exclude, _ := primitive.ObjectIDFromHex(excludeID)
	for id, p := range r.products {
		if id == exclude || !scope(p.StoreID, storeID) {
			continue
		}
		if pred(p) {
			return true
		}
	}
	return false
}

// checkUnique debe llamarse con el lock tomado
func (r *MemoryProductRepository) checkUnique(candidate models.Product, self primitive.ObjectID) error {
	for id, p := range r.products {
		if id == self {
			continue
		}
		if sameScopeFold(p.StoreID, candidate.StoreID) && strings.EqualFold(p.Name, candidate.Name) {
			return fmt.Errorf("%w: duplicate key name %q", models.ErrConflict, candidate.Name)
		}
		if sameScope(p.StoreID, candidate.StoreID) && p.Slug == candidate.Slug {
			return fmt.Errorf("%w: duplicate key slug %q", models.ErrConflict, candidate.Slug)
		}
	}
	return nil
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sameScopeFold compara como el índice (name, storeId), cuya collation también ignora
// mayúsculas en storeId
func sameScopeFold(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func matches(p models.Product, q models.ProductQuery) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.StoreID != nil && (p.StoreID == nil || *p.StoreID != *q.StoreID) {
		return false
	}
	if q.Available != nil && p.Available != *q.Available {
		return false
	}
	return true
}

func compareField(a, b models.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price":
		return cmp.Compare(a.Price, b.Price)
	case "rating":
		return cmp.Compare(a.Rating, b.Rating)
	case "category":
		return strings.Compare(a.Category, b.Category)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
