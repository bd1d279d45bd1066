package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID `json:"customerId" bson:"customerId"`
	ProductID  primitive.ObjectID `json:"productId" bson:"productId"`
	FarmerID   primitive.ObjectID `json:"farmerId" bson:"farmerId"`
	OrderID    primitive.ObjectID `json:"orderId" bson:"orderId"`
	Rating     int                `json:"rating" bson:"rating"`
	Comment    string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Images     []string           `json:"images,omitempty" bson:"images,omitempty"`
	Helpful    int                `json:"helpful" bson:"helpful"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`

	CustomerName string `json:"customerName,omitempty" bson:"customerName,omitempty"`
}
