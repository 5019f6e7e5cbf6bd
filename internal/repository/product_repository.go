package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 3 * time.Second
	queryTimeout = 10 * time.Second
)

// NameCollation compara nombres sin distinguir mayúsculas. Debe coincidir con la
// del índice único (name, storeId).
var NameCollation = &options.Collation{Locale: "en", Strength: 2}

type ProductRepository struct {
	collection *mongo.Collection
	clock      clock.Clock
}

func NewProductRepository(collection *mongo.Collection, clk clock.Clock) *ProductRepository {
	return &ProductRepository{
		collection: collection,
		clock:      clk,
	}
}

// Create inserta un nuevo produto
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := r.clock.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return translateWriteError(err)
	}
	return nil
}

// FindByID obtiene un produto por ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find produto %s: %w", id, err)
	}

	return &product, nil
}

// FindAll lista produtos con paginación, filtros y orden
func (r *ProductRepository) FindAll(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := buildFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count produtos: %w", err)
	}

	products := make([]models.Product, 0)
	if total == 0 || q.Skip() >= total {
		return products, total, nil
	}

	findOptions := options.Find().
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetSort(buildSort(q))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find produtos: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode produtos: %w", err)
	}

	return products, total, nil
}

// Update aplica un merge-update ($set solo de los campos presentes) y retorna el documento actualizado
func (r *ProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}

	set := updateDocument(update)
	set["updatedAt"] = r.clock.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
		return nil, translateWriteError(err)
	}

	return &product, nil
}

// Delete borra el documento. Cero documentos borrados es ErrNotFound.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", models.ErrNotFound, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete produto %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	return nil
}

// NameExists busca un produto con el mismo nombre (sin distinguir mayúsculas) en el scope
func (r *ProductRepository) NameExists(ctx context.Context, name string, storeID *string, excludeID string) (bool, error) {
	filter := scopeFilter(storeID, excludeID)
	filter["name"] = name

	opts := options.Count().SetLimit(1).SetCollation(NameCollation)
	return r.exists(ctx, filter, opts)
}

// SlugExists busca un produto con el slug dado en el scope
func (r *ProductRepository) SlugExists(ctx context.Context, slug string, storeID *string, excludeID string) (bool, error) {
	filter := scopeFilter(storeID, excludeID)
	filter["slug"] = slug

	return r.exists(ctx, filter, options.Count().SetLimit(1))
}

func (r *ProductRepository) exists(ctx context.Context, filter bson.M, opts *options.CountOptions) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter, opts)
	if err != nil {
		return false, fmt.Errorf("count produtos: %w", err)
	}
	return n > 0, nil
}

// --- Métodos auxiliares ---

// scopeFilter restringe al storeId dado; nil coincide con documentos sin storeId
func scopeFilter(storeID *string, excludeID string) bson.M {
	filter := bson.M{"storeId": nil}
	if storeID != nil {
		filter["storeId"] = *storeID
	}
	if excludeID != "" {
		if objID, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": objID}
		}
	}
	return filter
}

// buildFilter construye el filtro de MongoDB a partir de la consulta
func buildFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.StoreID != nil {
		filter["storeId"] = *q.StoreID
	}
	if q.Available != nil {
		filter["available"] = *q.Available
	}
	return filter
}

// buildSort ordena por el campo pedido y desempata por _id para paginar de forma estable
func buildSort(q models.ProductQuery) bson.D {
	order := -1
	if q.SortOrder == "asc" {
		order = 1
	}
	return bson.D{
		{Key: q.SortBy, Value: order},
		{Key: "_id", Value: order},
	}
}

// updateDocument convierte el patch en el documento del $set
func updateDocument(u models.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Available != nil {
		set["available"] = *u.Available
	}
	if u.PreparationTime != nil {
		set["preparationTime"] = *u.PreparationTime
	}
	if u.Ingredients != nil {
		set["ingredients"] = *u.Ingredients
	}
	if u.Allergens != nil {
		set["allergens"] = *u.Allergens
	}
	if u.Calories != nil {
		set["calories"] = *u.Calories
	}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.ReviewCount != nil {
		set["reviewCount"] = *u.ReviewCount
	}
	if u.StoreID != nil {
		set["storeId"] = *u.StoreID
	}
	if u.Slug != nil {
		set["slug"] = *u.Slug
	}
	if u.ImagePath != nil {
		set["image"] = *u.ImagePath
	}
	return set
}

// translateWriteError traduce la violación de índice único a ErrConflict
func translateWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return fmt.Errorf("write produto: %w", err)
}
