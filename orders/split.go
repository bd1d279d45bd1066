package orders

import (
	"strings"
	"time"

	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EstimatedDeliveryAfter is added to the checkout time for every new order.
const EstimatedDeliveryAfter = 3 * 24 * time.Hour

// CartItem is one line of a checkout request.
type CartItem struct {
	ProductID string  `json:"productId"`
	FarmerID  string  `json:"farmerId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Unit      string  `json:"unit"`
}

type CheckoutInput struct {
	Items                []CartItem `json:"items"`
	DeliveryAddress      string     `json:"deliveryAddress"`
	DeliveryInstructions string     `json:"deliveryInstructions"`
	PaymentMethod        string     `json:"paymentMethod"`
}

// FarmerGroup is the slice of a cart that one farmer fulfils.
type FarmerGroup struct {
	FarmerID    primitive.ObjectID
	Items       []models.OrderItem
	TotalAmount float64
}

type parsedItem struct {
	farmerID primitive.ObjectID
	item     models.OrderItem
}

// Validate checks the request shape and returns the parsed line items.
func (in *CheckoutInput) Validate() ([]parsedItem, error) {
	if len(in.Items) == 0 {
		return nil, utils.Invalid("Order must contain at least one item")
	}
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if in.DeliveryAddress == "" {
		return nil, utils.Invalid("Delivery address is required")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.DefaultPaymentMethod
	}
	if !isPaymentMethod(in.PaymentMethod) {
		return nil, utils.Invalid("Invalid payment method %q", in.PaymentMethod)
	}

	out := make([]parsedItem, 0, len(in.Items))
	for i, it := range in.Items {
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, utils.Invalid("Item %d: invalid productId", i+1)
		}
		fid, err := primitive.ObjectIDFromHex(it.FarmerID)
		if err != nil {
			return nil, utils.Invalid("Item %d: invalid farmerId", i+1)
		}
		if strings.TrimSpace(it.Name) == "" {
			return nil, utils.Invalid("Item %d: name is required", i+1)
		}
		if it.Price <= 0 {
			return nil, utils.Invalid("Item %d: price must be greater than 0", i+1)
		}
		if it.Quantity <= 0 {
			return nil, utils.Invalid("Item %d: quantity must be greater than 0", i+1)
		}
		out = append(out, parsedItem{
			farmerID: fid,
			item: models.OrderItem{
				ProductID: pid,
				Name:      strings.TrimSpace(it.Name),
				Price:     it.Price,
				Quantity:  it.Quantity,
				Unit:      it.Unit,
			},
		})
	}
	return out, nil
}

func isPaymentMethod(m string) bool {
	for _, pm := range models.PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// SplitByFarmer groups line items per farmer, keeping first-seen farmer order.
func SplitByFarmer(items []parsedItem) []FarmerGroup {
	index := map[primitive.ObjectID]int{}
	var groups []FarmerGroup
	for _, p := range items {
		i, ok := index[p.farmerID]
		if !ok {
			i = len(groups)
			index[p.farmerID] = i
			groups = append(groups, FarmerGroup{FarmerID: p.farmerID})
		}
		groups[i].Items = append(groups[i].Items, p.item)
		groups[i].TotalAmount += p.item.Subtotal()
	}
	for i := range groups {
		groups[i].TotalAmount = utils.RoundMoney(groups[i].TotalAmount)
	}
	return groups
}

// BuildOrders turns farmer groups into new pending orders.
func BuildOrders(customerID primitive.ObjectID, in CheckoutInput, groups []FarmerGroup, deliveryFee float64, now time.Time) []models.Order {
	orders := make([]models.Order, 0, len(groups))
	for _, g := range groups {
		orders = append(orders, models.Order{
			ID:                   primitive.NewObjectID(),
			CustomerID:           customerID,
			FarmerID:             g.FarmerID,
			Items:                g.Items,
			TotalAmount:          g.TotalAmount,
			DeliveryFee:          deliveryFee,
			Status:               models.StatusPending,
			DeliveryAddress:      in.DeliveryAddress,
			DeliveryInstructions: strings.TrimSpace(in.DeliveryInstructions),
			PaymentStatus:        models.PaymentPending,
			PaymentMethod:        in.PaymentMethod,
			EstimatedDelivery:    now.Add(EstimatedDeliveryAfter),
			CreatedAt:            now,
			UpdatedAt:            now,
		})
	}
	return orders
}
