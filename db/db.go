package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	AccountsCollection *mongo.Collection
	ProductsCollection *mongo.Collection
	OrdersCollection   *mongo.Collection
	ReviewsCollection  *mongo.Collection
	Client             *mongo.Client
)

// Connect opens the MongoDB client and binds the collection handles.
func Connect(ctx context.Context, uri, database string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	Client = client
	d := client.Database(database)
	AccountsCollection = d.Collection("accounts")
	ProductsCollection = d.Collection("products")
	OrdersCollection = d.Collection("orders")
	ReviewsCollection = d.Collection("reviews")

	log.Info().Str("database", database).Msg("connected to MongoDB")
	return nil
}

// CreateIndexes installs the uniqueness constraints the domain relies on.
func CreateIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		AccountsCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_email"),
			},
			{
				Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_phone"),
			},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "farmerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "farmerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "items.productId", Value: 1}, {Key: "status", Value: 1}}},
		},
		ReviewsCollection: {
			{
				Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "productId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_customer_product"),
			},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Disconnect closes the client, if one was opened.
func Disconnect(ctx context.Context) {
	if Client == nil {
		return
	}
	if err := Client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
