package auth

import (
	"context"
	"errors"
	"strings"

	"agriconnect/db"
	"agriconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicatePhone  = errors.New("phone number already registered")
)

// Store persists accounts. Emails are stored lower-cased.
type Store interface {
	Insert(ctx context.Context, a *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Account, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, a *models.Account) error {
	res, err := s.coll.InsertOne(ctx, a)
	if err != nil {
		return duplicateKind(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Account, error) {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, duplicateKind(err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrAccountNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var a models.Account
	err := s.coll.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// duplicateKind tells the email and phone unique indexes apart.
func duplicateKind(err error) error {
	if !db.IsDuplicateKey(err) {
		return err
	}
	if strings.Contains(err.Error(), "phoneNumber") || strings.Contains(err.Error(), "unique_phone") {
		return ErrDuplicatePhone
	}
	return ErrDuplicateEmail
}
