package reviews

import (
	"context"
	"errors"

	"agriconnect/db"
	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists")
)

// ListFilter narrows reviews to a product or to all products of a farmer.
type ListFilter struct {
	ProductID primitive.ObjectID
	FarmerID  primitive.ObjectID
	Page      int
	Limit     int
}

func (f ListFilter) match() bson.M {
	m := bson.M{}
	if !f.ProductID.IsZero() {
		m["productId"] = f.ProductID
	}
	if !f.FarmerID.IsZero() {
		m["farmerId"] = f.FarmerID
	}
	return m
}

// Summary is the rating aggregate for a filter.
type Summary struct {
	AverageRating float64 `json:"averageRating" bson:"averageRating"`
	TotalReviews  int64   `json:"totalReviews" bson:"totalReviews"`
}

type Store interface {
	DeliveredOrder(ctx context.Context, orderID, customerID primitive.ObjectID) (*models.Order, error)
	FindByCustomerProduct(ctx context.Context, customerID, productID primitive.ObjectID) (*models.Review, error)
	Insert(ctx context.Context, r *models.Review) error
	List(ctx context.Context, f ListFilter) ([]models.Review, error)
	Summarize(ctx context.Context, f ListFilter) (Summary, error)
	IncHelpful(ctx context.Context, id primitive.ObjectID) (int, error)
}

type MongoStore struct {
	reviews  *mongo.Collection
	orders   *mongo.Collection
	accounts *mongo.Collection
}

func NewMongoStore(reviews, orders, accounts *mongo.Collection) *MongoStore {
	return &MongoStore{reviews: reviews, orders: orders, accounts: accounts}
}

func (s *MongoStore) DeliveredOrder(ctx context.Context, orderID, customerID primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := s.orders.FindOne(ctx, bson.M{
		"_id":        orderID,
		"customerId": customerID,
		"status":     models.StatusDelivered,
	}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) FindByCustomerProduct(ctx context.Context, customerID, productID primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	err := s.reviews.FindOne(ctx, bson.M{"customerId": customerID, "productId": productID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) Insert(ctx context.Context, r *models.Review) error {
	res, err := s.reviews.InsertOne(ctx, r)
	if db.IsDuplicateKey(err) {
		return ErrDuplicateReview
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		r.ID = oid
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, f ListFilter) ([]models.Review, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.match()}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64((f.Page - 1) * f.Limit)}},
		{{Key: "$limit", Value: int64(f.Limit)}},
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
	return utils.AggregateAndDecode[models.Review](ctx, s.reviews, pipeline)
}

func (s *MongoStore) Summarize(ctx context.Context, f ListFilter) (Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.match()}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"averageRating": bson.M{"$avg": "$rating"},
			"totalReviews":  bson.M{"$sum": 1},
		}}},
	}
	rows, err := utils.AggregateAndDecode[Summary](ctx, s.reviews, pipeline)
	if err != nil || len(rows) == 0 {
		return Summary{}, err
	}
	return rows[0], nil
}

func (s *MongoStore) IncHelpful(ctx context.Context, id primitive.ObjectID) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"helpful": 1})
	var r struct {
		Helpful int `bson:"helpful"`
	}
	err := s.reviews.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"helpful": 1}}, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrReviewNotFound
	}
	if err != nil {
		return 0, err
	}
	return r.Helpful, nil
}
