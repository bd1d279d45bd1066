package products

import (
	"context"
	"errors"

	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProductNotFound = errors.New("product not found")

type Store interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// List returns one page of listings with the owning farmer joined in,
	// plus the total number of matches.
	List(ctx context.Context, q Query) ([]models.ProductListing, int64, error)
	Listing(ctx context.Context, id primitive.ObjectID) (*models.ProductListing, error)
	ListByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error)
	CountInStock(ctx context.Context, farmerID primitive.ObjectID) (int64, error)

	// Ratings aggregates review averages for all ids in one query.
	Ratings(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.RatingSummary, error)
	HasActiveOrders(ctx context.Context, productID primitive.ObjectID) (bool, error)
}

type MongoStore struct {
	products *mongo.Collection
	reviews  *mongo.Collection
	orders   *mongo.Collection
	accounts string
}

func NewMongoStore(products, reviews, orders, accounts *mongo.Collection) *MongoStore {
	return &MongoStore{products: products, reviews: reviews, orders: orders, accounts: accounts.Name()}
}

func (s *MongoStore) Insert(ctx context.Context, p *models.Product) error {
	res, err := s.products.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := s.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// farmerLookup joins the owning farmer's public fields as "farmer".
func (s *MongoStore) farmerLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": s.accounts,
			"let":  bson.M{"fid": "$farmerId"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$fid"}}}},
				bson.M{"$project": bson.M{
					"_id":          1,
					"fullName":     1,
					"farmName":     "$farm.farmName",
					"farmLocation": "$farm.farmLocation",
				}},
			},
			"as": "farmer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$farmer", "preserveNullAndEmptyArrays": true}}},
	}
}

func (s *MongoStore) List(ctx context.Context, q Query) ([]models.ProductListing, int64, error) {
	filter := q.Filter()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: q.Sort()}},
		{{Key: "$skip", Value: q.Skip()}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}
	pipeline = append(pipeline, s.farmerLookup()...)

	listings, err := utils.AggregateAndDecode[models.ProductListing](ctx, s.products, pipeline)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (s *MongoStore) Listing(ctx context.Context, id primitive.ObjectID) (*models.ProductListing, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, s.farmerLookup()...)

	listings, err := utils.AggregateAndDecode[models.ProductListing](ctx, s.products, pipeline)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, ErrProductNotFound
	}
	return &listings[0], nil
}

func (s *MongoStore) ListByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return utils.FindAndDecode[models.Product](ctx, s.products, bson.M{"farmerId": farmerID}, opts)
}

func (s *MongoStore) CountInStock(ctx context.Context, farmerID primitive.ObjectID) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{"farmerId": farmerID, "quantity": bson.M{"$gt": 0}})
}

func (s *MongoStore) Ratings(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.RatingSummary, error) {
	out := make(map[primitive.ObjectID]models.RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$productId",
			"averageRating": bson.M{"$avg": "$rating"},
			"reviewCount":   bson.M{"$sum": 1},
		}}},
	}
	rows, err := utils.AggregateAndDecode[models.RatingSummary](ctx, s.reviews, pipeline)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ProductID] = r
	}
	return out, nil
}

func (s *MongoStore) HasActiveOrders(ctx context.Context, productID primitive.ObjectID) (bool, error) {
	n, err := s.orders.CountDocuments(ctx, bson.M{
		"items.productId": productID,
		"status":          bson.M{"$in": models.ActiveStatuses},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
