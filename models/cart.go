package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

var PaymentMethods = []string{"cash_on_delivery", "card", "bank_transfer", "mobile_money"}

const DefaultPaymentMethod = "cash_on_delivery"

// ActiveStatuses are the states that still represent open commercial activity.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped}

var orderTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

// IsOrderStatus reports whether s is a known order status.
func IsOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order in state from may move to state to.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a descriptive error for a rejected transition.
func ValidateTransition(from, to string) error {
	if !IsOrderStatus(to) {
		return fmt.Errorf("invalid status %q", to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid status transition from %s to %s", from, to)
	}
	return nil
}

// OrderItem is a price/name snapshot taken at checkout.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Unit      string             `json:"unit" bson:"unit"`
}

func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Order is a single-farmer fulfilment unit.
type Order struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID           primitive.ObjectID `json:"customerId" bson:"customerId"`
	FarmerID             primitive.ObjectID `json:"farmerId" bson:"farmerId"`
	Items                []OrderItem        `json:"items" bson:"items"`
	TotalAmount          float64            `json:"totalAmount" bson:"totalAmount"`
	DeliveryFee          float64            `json:"deliveryFee" bson:"deliveryFee"`
	Status               string             `json:"status" bson:"status"`
	DeliveryAddress      string             `json:"deliveryAddress" bson:"deliveryAddress"`
	DeliveryInstructions string             `json:"deliveryInstructions,omitempty" bson:"deliveryInstructions,omitempty"`
	PaymentStatus        string             `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethod        string             `json:"paymentMethod" bson:"paymentMethod"`
	EstimatedDelivery    time.Time          `json:"estimatedDelivery" bson:"estimatedDelivery"`
	ActualDelivery       *time.Time         `json:"actualDelivery,omitempty" bson:"actualDelivery,omitempty"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`

	// Filled by $lookup on read paths.
	CustomerName string `json:"customerName,omitempty" bson:"customerName,omitempty"`
}

// GrandTotal is what the customer pays for this order.
func (o Order) GrandTotal() float64 {
	return o.TotalAmount + o.DeliveryFee
}

// HasProduct reports whether productID is among the order's line items.
func (o Order) HasProduct(productID primitive.ObjectID) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// OrderEvent is published when an order is created or changes state.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	FarmerID    string    `json:"farmerId"`
	CustomerID  string    `json:"customerId"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	At          time.Time `json:"at"`
}

func NewOrderEvent(kind string, o Order) OrderEvent {
	return OrderEvent{
		Type:        kind,
		OrderID:     o.ID.Hex(),
		FarmerID:    o.FarmerID.Hex(),
		CustomerID:  o.CustomerID.Hex(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		At:          time.Now(),
	}
}
