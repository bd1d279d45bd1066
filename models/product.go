package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ProductCategories = []string{
	"vegetables", "fruits", "grains", "dairy", "meat", "poultry", "herbs", "other",
}

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Category    string             `json:"category" bson:"category"`
	Price       float64            `json:"price" bson:"price"`
	Unit        string             `json:"unit" bson:"unit"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	HarvestDate *time.Time         `json:"harvestDate,omitempty" bson:"harvestDate,omitempty"`
	ExpiryDate  *time.Time         `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	Images      []string           `json:"images" bson:"images"`
	Organic     bool               `json:"organic" bson:"organic"`
	FarmerID    primitive.ObjectID `json:"farmerId" bson:"farmerId"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

// RatingSummary is the review aggregate for one product.
type RatingSummary struct {
	ProductID     primitive.ObjectID `json:"-" bson:"_id"`
	AverageRating float64            `json:"averageRating" bson:"averageRating"`
	ReviewCount   int                `json:"reviewCount" bson:"reviewCount"`
}

// ProductListing is a product as shown in the catalog.
type ProductListing struct {
	Product       `bson:",inline"`
	InStock       bool           `json:"inStock"`
	Farmer        *FarmerSummary `json:"farmer,omitempty"`
	AverageRating float64        `json:"averageRating"`
	ReviewCount   int            `json:"reviewCount"`
}
