package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"produtos-api/internal/repository"
)

const connectTimeout = 10 * time.Second

// Connect abre la conexión con MongoDB y verifica que responde
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Println("✅ Connected to MongoDB")
	return client, nil
}

// ProductIndexes retorna los índices de la colección de produtos
func ProductIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}, {Key: "storeId", Value: 1}},
			Options: options.Index().
				SetName("name_storeId_unique").
				SetUnique(true).
				SetCollation(repository.NameCollation),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "storeId", Value: 1}},
			Options: options.Index().SetName("slug_storeId_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "available", Value: 1}},
			Options: options.Index().SetName("category_available"),
		},
		{
			Keys:    bson.D{{Key: "rating", Value: -1}, {Key: "reviewCount", Value: -1}},
			Options: options.Index().SetName("rating_reviewCount"),
		},
	}
}

// EnsureIndexes crea (o confirma) los índices de produtos
func EnsureIndexes(ctx context.Context, collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	names, err := collection.Indexes().CreateMany(ctx, ProductIndexes())
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", collection.Name(), err)
	}

	log.Printf("✅ Indexes ready on %s: %v", collection.Name(), names)
	return nil
}
