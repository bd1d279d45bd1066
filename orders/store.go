package orders

import (
	"context"
	"errors"
	"fmt"

	"agriconnect/models"
	"agriconnect/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrStaleStatus   = errors.New("order status changed concurrently")
)

// ListFilter selects orders for one side of the marketplace.
type ListFilter struct {
	CustomerID primitive.ObjectID
	FarmerID   primitive.ObjectID
	Status     string
}

type Store interface {
	// InsertAll persists every order or none of them.
	InsertAll(ctx context.Context, orders []models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, f ListFilter) ([]models.Order, error)
	// UpdateFrom applies set only while the order is still in status from.
	UpdateFrom(ctx context.Context, id primitive.ObjectID, from string, set bson.M) (*models.Order, error)
	Products(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	AccountName(ctx context.Context, id primitive.ObjectID) (string, error)
}

type MongoStore struct {
	client   *mongo.Client
	orders   *mongo.Collection
	products *mongo.Collection
	accounts *mongo.Collection
}

func NewMongoStore(client *mongo.Client, orders, products, accounts *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, orders: orders, products: products, accounts: accounts}
}

func (s *MongoStore) InsertAll(ctx context.Context, orders []models.Order) error {
	docs := make([]interface{}, len(orders))
	for i := range orders {
		docs[i] = orders[i]
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return s.orders.InsertMany(sc, docs)
	})
	if isTransactionUnsupported(err) {
		// Standalone servers cannot run transactions; fall back to one ordered batch.
		log.Warn().Msg("mongo transactions unavailable, inserting orders without a transaction")
		_, err = s.orders.InsertMany(ctx, docs)
	}
	return err
}

func isTransactionUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 20 || ce.Name == "IllegalOperation"
	}
	return false
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	match := bson.M{}
	if !f.CustomerID.IsZero() {
		match["customerId"] = f.CustomerID
	}
	if !f.FarmerID.IsZero() {
		match["farmerId"] = f.FarmerID
	}
	if f.Status != "" {
		match["status"] = f.Status
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
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

func (s *MongoStore) UpdateFrom(ctx context.Context, id primitive.ObjectID, from string, set bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.orders.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStaleStatus
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) Products(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	ps, err := utils.FindAndDecode[models.Product](ctx, s.products, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (s *MongoStore) AccountName(ctx context.Context, id primitive.ObjectID) (string, error) {
	var a struct {
		FullName string `bson:"fullName"`
	}
	opts := options.FindOne().SetProjection(bson.M{"fullName": 1})
	err := s.accounts.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	return a.FullName, err
}
