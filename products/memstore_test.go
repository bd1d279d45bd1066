package products

import (
	"context"
	"slices"
	"sort"
	"sync"

	"agriconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore supports the subset of queries the tests exercise.
type memStore struct {
	mu          sync.Mutex
	products    map[primitive.ObjectID]*models.Product
	ratings     map[primitive.ObjectID]models.RatingSummary
	orders      []models.Order
	ratingCalls int
}

func newMemStore() *memStore {
	return &memStore{
		products: map[primitive.ObjectID]*models.Product{},
		ratings:  map[primitive.ObjectID]models.RatingSummary{},
	}
}

func (m *memStore) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	for k, v := range set {
		switch k {
		case "name":
			p.Name = v.(string)
		case "price":
			p.Price = v.(float64)
		case "quantity":
			p.Quantity = v.(int)
		case "images":
			p.Images = v.([]string)
		}
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) List(_ context.Context, q Query) ([]models.ProductListing, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Product
	for _, p := range m.products {
		if !q.FarmerID.IsZero() && p.FarmerID != q.FarmerID {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.InStock && p.Quantity <= 0 {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := min(int(q.Skip()), len(all))
	end := min(start+q.Limit, len(all))

	out := []models.ProductListing{}
	for _, p := range all[start:end] {
		out = append(out, models.ProductListing{Product: p})
	}
	return out, total, nil
}

func (m *memStore) Listing(_ context.Context, id primitive.ObjectID) (*models.ProductListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &models.ProductListing{Product: *p}, nil
}

func (m *memStore) ListByFarmer(_ context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if p.FarmerID == farmerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) CountInStock(_ context.Context, farmerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		if p.FarmerID == farmerID && p.Quantity > 0 {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Ratings(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingCalls++
	out := map[primitive.ObjectID]models.RatingSummary{}
	for _, id := range ids {
		if r, ok := m.ratings[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (m *memStore) HasActiveOrders(_ context.Context, productID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.HasProduct(productID) && slices.Contains(models.ActiveStatuses, o.Status) {
			return true, nil
		}
	}
	return false, nil
}
