package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agriconnect/globals"
	"agriconnect/models"
	"agriconnect/mq"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventOrderCreated       = "order-created"
	EventOrderStatusChanged = "order-status-changed"
)

type UpdateInput struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type Service struct {
	store       Store
	events      mq.Emitter
	deliveryFee float64
	now         func() time.Time
}

func NewService(store Store, events mq.Emitter, deliveryFee float64) *Service {
	if events == nil {
		events = mq.Nop{}
	}
	return &Service{store: store, events: events, deliveryFee: deliveryFee, now: time.Now}
}

// Checkout splits the cart into one order per farmer and stores them atomically.
func (s *Service) Checkout(ctx context.Context, customerID primitive.ObjectID, in CheckoutInput) ([]models.Order, error) {
	items, err := in.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.snapshot(ctx, items); err != nil {
		return nil, err
	}

	groups := SplitByFarmer(items)
	orders := BuildOrders(customerID, in, groups, s.deliveryFee, s.now().UTC())
	if err := s.store.InsertAll(ctx, orders); err != nil {
		return nil, fmt.Errorf("insert orders: %w", err)
	}

	for _, o := range orders {
		s.events.Emit(ctx, models.NewOrderEvent(EventOrderCreated, o))
	}
	return orders, nil
}

// snapshot checks every line against the catalog and copies the catalog's
// name, price and unit onto it.
func (s *Service) snapshot(ctx context.Context, items []parsedItem) error {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.item.ProductID)
	}
	catalog, err := s.store.Products(ctx, ids)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	requested := map[primitive.ObjectID]int{}
	for i := range items {
		it := &items[i]
		p, ok := catalog[it.item.ProductID]
		if !ok {
			return utils.Invalid("Product not found: %s", it.item.Name)
		}
		if p.FarmerID != it.farmerID {
			return utils.Invalid("Product %s is not sold by the given farmer", p.Name)
		}
		requested[p.ID] += it.item.Quantity
		if requested[p.ID] > p.Quantity {
			return utils.Invalid("Insufficient stock for %s", p.Name)
		}
		it.item.Name = p.Name
		it.item.Price = p.Price
		it.item.Unit = p.Unit
	}
	return nil
}

// List returns the caller's orders: placed ones for customers, received ones for farmers.
func (s *Service) List(ctx context.Context, callerID primitive.ObjectID, role, status string) ([]models.Order, error) {
	if status != "" && !models.IsOrderStatus(status) {
		return nil, utils.Invalid("invalid status %q", status)
	}
	f := ListFilter{Status: status}
	switch role {
	case globals.RoleCustomer:
		f.CustomerID = callerID
	case globals.RoleFarmer:
		f.FarmerID = callerID
	default:
		return nil, utils.Unauthorized("Unauthorized")
	}
	orders, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns an order visible to its customer or farmer.
func (s *Service) Get(ctx context.Context, callerID, id primitive.ObjectID) (*models.Order, error) {
	o, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o.CustomerID != callerID && o.FarmerID != callerID {
		return nil, utils.Unauthorized("Not authorized to view this order")
	}
	return o, nil
}

// Update lets the owning farmer advance the status or set the payment status.
func (s *Service) Update(ctx context.Context, farmerID, id primitive.ObjectID, in UpdateInput) (*models.Order, error) {
	if in.Status == "" && in.PaymentStatus == "" {
		return nil, utils.Invalid("Nothing to update")
	}
	o, err := s.Get(ctx, farmerID, id)
	if err != nil {
		return nil, err
	}
	if o.FarmerID != farmerID {
		return nil, utils.Unauthorized("Not authorized to update this order")
	}

	now := s.now().UTC()
	set := bson.M{"updatedAt": now}
	if in.Status != "" {
		if err := models.ValidateTransition(o.Status, in.Status); err != nil {
			return nil, utils.Invalid("%s", err.Error())
		}
		set["status"] = in.Status
		if in.Status == models.StatusDelivered {
			set["actualDelivery"] = now
		}
	}
	if in.PaymentStatus != "" {
		if in.PaymentStatus != models.PaymentPaid && in.PaymentStatus != models.PaymentFailed {
			return nil, utils.Invalid("invalid payment status %q", in.PaymentStatus)
		}
		set["paymentStatus"] = in.PaymentStatus
	}

	updated, err := s.store.UpdateFrom(ctx, id, o.Status, set)
	if errors.Is(err, ErrStaleStatus) {
		return nil, utils.Conflict("Order was modified concurrently, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if in.Status != "" {
		s.events.Emit(ctx, models.NewOrderEvent(EventOrderStatusChanged, *updated))
	}
	return updated, nil
}

// Cancel lets the customer withdraw an order that no farmer has confirmed yet.
func (s *Service) Cancel(ctx context.Context, customerID, id primitive.ObjectID) (*models.Order, error) {
	o, err := s.Get(ctx, customerID, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, utils.Unauthorized("Not authorized to cancel this order")
	}
	if o.Status != models.StatusPending {
		return nil, utils.Invalid("Only pending orders can be cancelled")
	}

	updated, err := s.store.UpdateFrom(ctx, id, o.Status, bson.M{
		"status":    models.StatusCancelled,
		"updatedAt": s.now().UTC(),
	})
	if errors.Is(err, ErrStaleStatus) {
		return nil, utils.Conflict("Order was modified concurrently, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	s.events.Emit(ctx, models.NewOrderEvent(EventOrderStatusChanged, *updated))
	return updated, nil
}

// Receipt renders the PDF receipt for an order the caller can see.
func (s *Service) Receipt(ctx context.Context, callerID, id primitive.ObjectID) (*models.Order, []byte, error) {
	o, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, nil, err
	}
	name, err := s.store.AccountName(ctx, o.CustomerID)
	if err != nil {
		return nil, nil, fmt.Errorf("customer name: %w", err)
	}
	o.CustomerName = name

	pdf, err := RenderReceipt(*o)
	if err != nil {
		return nil, nil, err
	}
	return o, pdf, nil
}
