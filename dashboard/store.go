package dashboard

import (
	"context"
	"time"

	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store interface {
	// OrdersSince returns the farmer's orders created at or after since,
	// newest first, with customer names joined.
	OrdersSince(ctx context.Context, farmerID primitive.ObjectID, since time.Time) ([]models.Order, error)
	CountInStock(ctx context.Context, farmerID primitive.ObjectID) (int64, error)
}

type MongoStore struct {
	orders   *mongo.Collection
	products *mongo.Collection
	accounts *mongo.Collection
}

func NewMongoStore(orders, products, accounts *mongo.Collection) *MongoStore {
	return &MongoStore{orders: orders, products: products, accounts: accounts}
}

func (s *MongoStore) OrdersSince(ctx context.Context, farmerID primitive.ObjectID, since time.Time) ([]models.Order, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"farmerId": farmerID, "createdAt": bson.M{"$gte": since}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.accounts.Name(),
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"customerName": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$customer.fullName", 0}}, ""}},
		}}},
		{{Key: "$project", Value: bson.M{"customer": 0}}},
	}
	return utils.AggregateAndDecode[models.Order](ctx, s.orders, pipeline)
}

func (s *MongoStore) CountInStock(ctx context.Context, farmerID primitive.ObjectID) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{"farmerId": farmerID, "quantity": bson.M{"$gt": 0}})
}
