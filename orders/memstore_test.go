package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"agriconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu         sync.Mutex
	orders     map[primitive.ObjectID]models.Order
	products   map[primitive.ObjectID]models.Product
	names      map[primitive.ObjectID]string
	failInsert bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[primitive.ObjectID]models.Order{},
		products: map[primitive.ObjectID]models.Product{},
		names:    map[primitive.ObjectID]string{},
	}
}

func (m *memStore) InsertAll(_ context.Context, orders []models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return errors.New("write conflict")
	}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if !f.CustomerID.IsZero() && o.CustomerID != f.CustomerID {
			continue
		}
		if !f.FarmerID.IsZero() && o.FarmerID != f.FarmerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		o.CustomerName = m.names[o.CustomerID]
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateFrom(_ context.Context, id primitive.ObjectID, from string, set bson.M) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return nil, ErrStaleStatus
	}
	for k, v := range set {
		switch k {
		case "status":
			o.Status = v.(string)
		case "paymentStatus":
			o.PaymentStatus = v.(string)
		case "actualDelivery":
			at := v.(time.Time)
			o.ActualDelivery = &at
		case "updatedAt":
			o.UpdatedAt = v.(time.Time)
		}
	}
	m.orders[id] = o
	return &o, nil
}

func (m *memStore) Products(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) AccountName(_ context.Context, id primitive.ObjectID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[id], nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (r *recordingEmitter) Emit(_ context.Context, e models.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
