package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"produtos-api/internal/events"
	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
	"produtos-api/internal/slug"
)

// ImageUpload es una imagen recibida junto con el produto
type ImageUpload struct {
	Data     []byte
	MimeType string
}

// ProductService orquesta la creación, actualización y borrado de produtos:
// unicidad de nombre, slug, ciclo de vida de la imagen y compensación.
type ProductService struct {
	repo      ProductRepository
	images    ImageStore
	slugs     *slug.Generator
	publisher events.Publisher
	clock     clock.Clock
}

// NewProductService crea un ProductService. publisher puede ser nil.
func NewProductService(repo ProductRepository, images ImageStore, publisher events.Publisher, clk clock.Clock) *ProductService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ProductService{
		repo:      repo,
		images:    images,
		slugs:     slug.NewGenerator(repo),
		publisher: publisher,
		clock:     clk,
	}
}

// Create crea un produto y, si viene, guarda su imagen
func (s *ProductService) Create(ctx context.Context, input models.ProductInput, image *ImageUpload) (*models.Product, error) {
	product := newProduct(input)

	if err := s.assertNameAvailable(ctx, product.Name, product.StoreID, ""); err != nil {
		return nil, err
	}

	productSlug, err := s.slugs.Generate(ctx, product.Name, product.StoreID, "")
	if err != nil {
		return nil, err
	}
	product.Slug = productSlug

	// si la imagen falla no hay nada escrito todavía
	if image != nil {
		stored, err := s.images.Store(ctx, image.Data, image.MimeType)
		if err != nil {
			return nil, err
		}
		product.ImagePath = stored
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImage(ctx, product.ImagePath)
		return nil, err
	}

	s.publish(ctx, events.ProductCreated, product)
	return product, nil
}

// Get obtiene un produto por ID
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List aplica defaults, valida la consulta y retorna la página pedida
func (s *ProductService) List(ctx context.Context, q models.ProductQuery) (*models.ProductList, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}

	products, total, err := s.repo.FindAll(ctx, q)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}

	return &models.ProductList{
		Products: products,
		Total:    total,
		Pages:    models.PageCount(total, q.Limit),
	}, nil
}

// Update aplica un patch parcial. Solo recalcula el slug si viene name.
func (s *ProductService) Update(ctx context.Context, id string, update models.ProductUpdate, image *ImageUpload) (*models.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.StoreID != nil {
		update.StoreID = normalizeStoreID(update.StoreID)
		if update.StoreID == nil {
			return nil, models.NewValidationError("storeId", "storeId cannot be empty")
		}
	}
	scope := current.StoreID
	if update.StoreID != nil {
		scope = update.StoreID
	}

	if update.Category != nil {
		category := strings.ToLower(*update.Category)
		update.Category = &category
	}

	if update.Name != nil {
		if *update.Name != current.Name {
			if err := s.assertNameAvailable(ctx, *update.Name, scope, id); err != nil {
				return nil, err
			}
		}
		productSlug, err := s.slugs.Generate(ctx, *update.Name, scope, id)
		if err != nil {
			return nil, err
		}
		update.Slug = &productSlug
	}

	// la imagen anterior solo se borra cuando la nueva ya quedó referenciada en el registro
	var stored string
	if image != nil {
		stored, err = s.images.Store(ctx, image.Data, image.MimeType)
		if err != nil {
			return nil, err
		}
		update.ImagePath = &stored
	}

	if update.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		s.discardImage(ctx, stored)
		return nil, err
	}

	if stored != "" && current.ImagePath != stored {
		s.images.Delete(context.WithoutCancel(ctx), current.ImagePath)
	}

	s.publish(ctx, events.ProductUpdated, updated)
	return updated, nil
}

// Delete borra el produto y después su imagen
func (s *ProductService) Delete(ctx context.Context, id string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// entre el FindByID y el Delete otro request pudo borrarlo: el repo retorna ErrNotFound
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.images.Delete(context.WithoutCancel(ctx), current.ImagePath)
	s.publish(ctx, events.ProductDeleted, current)
	return nil
}

// assertNameAvailable falla con ErrConflict si el nombre ya existe en el scope
func (s *ProductService) assertNameAvailable(ctx context.Context, name string, storeID *string, excludeID string) error {
	taken, err := s.repo.NameExists(ctx, name, storeID, excludeID)
	if err != nil {
		return fmt.Errorf("check name %q: %w", name, err)
	}
	if taken {
		return fmt.Errorf("%w: a produto named %q already exists in this store", models.ErrConflict, name)
	}
	return nil
}

// discardImage borra una imagen recién guardada tras un fallo de persistencia
func (s *ProductService) discardImage(ctx context.Context, storedPath string) {
	if storedPath == "" {
		return
	}
	log.Printf("🧹 removing orphan image %s", storedPath)
	s.images.Delete(context.WithoutCancel(ctx), storedPath)
}

func (s *ProductService) publish(ctx context.Context, eventType string, p *models.Product) {
	event := events.Event{
		Type:       eventType,
		ProductID:  p.ID.Hex(),
		StoreID:    p.StoreID,
		Product:    p,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("⚠️ could not publish %s for %s: %v", eventType, event.ProductID, err)
	}
}

// newProduct arma el produto con los defaults y la categoría en minúsculas
func newProduct(in models.ProductInput) *models.Product {
	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.ToLower(in.Category),
		Available:   true,
		Ingredients: in.Ingredients,
		Allergens:   in.Allergens,
		StoreID:     normalizeStoreID(in.StoreID),
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.PreparationTime != nil {
		p.PreparationTime = *in.PreparationTime
	}
	if in.Calories != nil {
		p.Calories = *in.Calories
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.ReviewCount != nil {
		p.ReviewCount = *in.ReviewCount
	}
	return p
}

// normalizeStoreID trata "" como ausencia de loja
func normalizeStoreID(storeID *string) *string {
	if storeID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*storeID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeQuery(q models.ProductQuery) (models.ProductQuery, error) {
	if q.Page == 0 {
		q.Page = models.DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = models.DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = models.DefaultSortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = models.DefaultSortOrder
	}

	var errs []error
	if q.Page < 1 {
		errs = append(errs, models.NewValidationError("page", "page must be at least 1"))
	}
	if q.Limit < 1 {
		errs = append(errs, models.NewValidationError("limit", "limit must be at least 1"))
	}
	if !isSortable(q.SortBy) {
		errs = append(errs, models.NewValidationError("sortBy", "sortBy must be one of "+strings.Join(models.SortableFields, ", ")))
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		errs = append(errs, models.NewValidationError("sortOrder", "sortOrder must be asc or desc"))
	}
	if len(errs) > 0 {
		return q, errors.Join(errs...)
	}

	q.Category = strings.ToLower(q.Category)
	q.StoreID = normalizeStoreID(q.StoreID)
	return q, nil
}

func isSortable(field string) bool {
	for _, f := range models.SortableFields {
		if f == field {
			return true
		}
	}
	return false
}
