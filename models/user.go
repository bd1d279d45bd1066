package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is the single identity for customers and farmers; Role is the discriminator.
type Account struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Role        string             `json:"role" bson:"role"`
	FullName    string             `json:"fullName" bson:"fullName"`
	Email       string             `json:"email" bson:"email"`
	PhoneNumber string             `json:"phoneNumber" bson:"phoneNumber"`
	Password    string             `json:"-" bson:"password"`
	Address     string             `json:"address,omitempty" bson:"address,omitempty"`
	Farm        *FarmProfile       `json:"farm,omitempty" bson:"farm,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FarmProfile holds the farmer-only fields.
type FarmProfile struct {
	FarmName        string  `json:"farmName" bson:"farmName"`
	FarmLocation    string  `json:"farmLocation" bson:"farmLocation"`
	FarmDescription string  `json:"farmDescription,omitempty" bson:"farmDescription,omitempty"`
	DeliveryRadius  float64 `json:"deliveryRadius" bson:"deliveryRadius"`
}

// FarmerSummary is the owner data joined onto product listings.
type FarmerSummary struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	FullName     string             `json:"fullName" bson:"fullName"`
	FarmName     string             `json:"farmName" bson:"farmName"`
	FarmLocation string             `json:"farmLocation" bson:"farmLocation"`
}

// Principal is what a successful login resolves to.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a Account) Principal() Principal {
	return Principal{ID: a.ID.Hex(), Name: a.FullName, Email: a.Email, Role: a.Role}
}

func (a Account) FarmerSummary() FarmerSummary {
	s := FarmerSummary{ID: a.ID, FullName: a.FullName}
	if a.Farm != nil {
		s.FarmName = a.Farm.FarmName
		s.FarmLocation = a.Farm.FarmLocation
	}
	return s
}
