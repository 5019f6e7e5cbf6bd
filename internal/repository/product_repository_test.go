package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func newRepo(mt *mtest.T) *ProductRepository {
	return NewProductRepository(mt.Coll, clock.NewMockClock(fixedNow))
}

func productDoc(id primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "description", Value: "desc"},
		{Key: "slug", Value: "x-burguer"},
		{Key: "price", Value: 25.5},
		{Key: "category", Value: "lanches"},
		{Key: "available", Value: true},
	}
}

func TestProductRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Product{Name: "X-Burguer", Slug: "x-burguer", Price: 25.5, Category: "lanches"}
		err := newRepo(mt).Create(context.Background(), p)

		require.NoError(mt, err)
		assert.False(mt, p.ID.IsZero())
		assert.Equal(mt, fixedNow, p.CreatedAt)
		assert.Equal(mt, fixedNow, p.UpdatedAt)
	})

	mt.Run("duplicate key becomes ErrConflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: catalogo.produtos index: name_storeId_unique",
		}))

		err := newRepo(mt).Create(context.Background(), &models.Product{Name: "X-Burguer"})
		assert.ErrorIs(mt, err, models.ErrConflict)
	})
}

func TestProductRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, productDoc(id, "X-Burguer")))

		p, err := newRepo(mt).FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
		assert.Equal(mt, "X-Burguer", p.Name)
		assert.Equal(mt, "lanches", p.Category)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := newRepo(mt).FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("malformed id never reaches the server", func(mt *mtest.T) {
		_, err := newRepo(mt).FindByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestProductRepository_FindAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	query := models.ProductQuery{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"}

	mt.Run("empty collection skips the find", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		products, total, err := newRepo(mt).FindAll(context.Background(), query)
		require.NoError(mt, err)
		assert.Empty(mt, products)
		assert.NotNil(mt, products)
		assert.Zero(mt, total)
	})

	mt.Run("count then page", func(mt *mtest.T) {
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
				productDoc(first, "X-Burguer"), productDoc(second, "X-Salada")),
		)

		products, total, err := newRepo(mt).FindAll(context.Background(), query)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), total)
		require.Len(mt, products, 2)
		assert.Equal(mt, "X-Salada", products[1].Name)
	})
}

func TestProductRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the updated document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: productDoc(id, "X-Tudo")},
		))

		name := "X-Tudo"
		p, err := newRepo(mt).Update(context.Background(), id.Hex(), models.ProductUpdate{Name: &name})
		require.NoError(mt, err)
		assert.Equal(mt, "X-Tudo", p.Name)
	})

	mt.Run("duplicate key becomes ErrConflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		}))

		name := "X-Salada"
		_, err := newRepo(mt).Update(context.Background(), primitive.NewObjectID().Hex(), models.ProductUpdate{Name: &name})
		assert.ErrorIs(mt, err, models.ErrConflict)
	})
}

func TestProductRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := newRepo(mt).Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.NoError(mt, err)
	})

	mt.Run("nothing deleted is ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := newRepo(mt).Delete(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestProductRepository_Exists(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("name taken", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))

		taken, err := newRepo(mt).NameExists(context.Background(), "x-burguer", nil, "")
		require.NoError(mt, err)
		assert.True(mt, taken)

		// la collation cubre todo el filtro, storeId incluido, igual que el índice único
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		collation, err := started.Command.LookupErr("collation")
		require.NoError(mt, err)
		assert.Equal(mt, int32(2), collation.Document().Lookup("strength").Int32())
	})

	mt.Run("slug free", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		store := "loja-1"
		taken, err := newRepo(mt).SlugExists(context.Background(), "x-burguer", &store, primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.False(mt, taken)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		_, err = started.Command.LookupErr("collation")
		assert.Error(mt, err, "slug checks compare storeId exactly")
	})
}

func TestScopeFilter(t *testing.T) {
	withoutStore := scopeFilter(nil, "")
	assert.Equal(t, bson.M{"storeId": nil}, withoutStore)

	store := "loja-1"
	id := primitive.NewObjectID()
	scoped := scopeFilter(&store, id.Hex())
	assert.Equal(t, "loja-1", scoped["storeId"])
	assert.Equal(t, bson.M{"$ne": id}, scoped["_id"])
}

func TestBuildSort(t *testing.T) {
	asc := buildSort(models.ProductQuery{SortBy: "price", SortOrder: "asc"})
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, asc)

	desc := buildSort(models.ProductQuery{SortBy: "createdAt", SortOrder: "desc"})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, desc)
}
