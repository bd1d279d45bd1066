package orders

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agriconnect/globals"
	"agriconnect/models"
	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	events   *recordingEmitter
	svc      *Service
	customer primitive.ObjectID
	farmers  map[string]primitive.ObjectID
	products map[string]models.Product
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemStore(),
		events:   &recordingEmitter{},
		customer: primitive.NewObjectID(),
		farmers:  map[string]primitive.ObjectID{},
		products: map[string]models.Product{},
	}
	for _, name := range []string{"A", "B", "C"} {
		f.farmers[name] = primitive.NewObjectID()
	}
	add := func(key, farmer string, price float64) {
		p := models.Product{
			ID:       primitive.NewObjectID(),
			Name:     key,
			Price:    price,
			Unit:     "kg",
			Quantity: 50,
			FarmerID: f.farmers[farmer],
		}
		f.products[key] = p
		f.store.products[p.ID] = p
	}
	add("tomatoes", "A", 2.50)
	add("maize", "B", 1.20)
	add("onions", "A", 0.80)
	add("milk", "C", 1.10)

	f.store.names[f.customer] = "Jane Buyer"
	f.svc = NewService(f.store, f.events, 5.00)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) line(key string, qty int) CartItem {
	p := f.products[key]
	return CartItem{
		ProductID: p.ID.Hex(),
		FarmerID:  p.FarmerID.Hex(),
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Unit:      p.Unit,
	}
}

func TestCheckoutSplitsPerFarmer(t *testing.T) {
	f := newFixture()
	// farmers A, B, A, C
	in := CheckoutInput{
		Items: []CartItem{
			f.line("tomatoes", 4),
			f.line("maize", 10),
			f.line("onions", 5),
			f.line("milk", 3),
		},
		DeliveryAddress: "12 Market Rd",
	}

	orders, err := f.svc.Checkout(context.Background(), f.customer, in)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Len(t, f.store.orders, 3)

	byFarmer := map[primitive.ObjectID]models.Order{}
	for _, o := range orders {
		byFarmer[o.FarmerID] = o
		assert.Equal(t, models.StatusPending, o.Status)
		assert.Equal(t, models.PaymentPending, o.PaymentStatus)
		assert.Equal(t, models.DefaultPaymentMethod, o.PaymentMethod)
		assert.Equal(t, 5.00, o.DeliveryFee)
		assert.Equal(t, fixedNow.Add(72*time.Hour), o.EstimatedDelivery)
		assert.Equal(t, f.customer, o.CustomerID)

		var sum float64
		for _, it := range o.Items {
			sum += it.Subtotal()
		}
		assert.InDelta(t, sum, o.TotalAmount, 0.001)
	}

	a := byFarmer[f.farmers["A"]]
	require.Len(t, a.Items, 2)
	assert.Equal(t, "tomatoes", a.Items[0].Name)
	assert.Equal(t, "onions", a.Items[1].Name)
	assert.Equal(t, 14.00, a.TotalAmount)
	assert.Equal(t, 12.00, byFarmer[f.farmers["B"]].TotalAmount)
	assert.Equal(t, 3.30, byFarmer[f.farmers["C"]].TotalAmount)

	// first-seen farmer order is kept
	assert.Equal(t, f.farmers["A"], orders[0].FarmerID)
	assert.Equal(t, f.farmers["B"], orders[1].FarmerID)
	assert.Equal(t, f.farmers["C"], orders[2].FarmerID)

	require.Len(t, f.events.events, 3)
	assert.Equal(t, EventOrderCreated, f.events.events[0].Type)
}

func TestCheckoutUsesCatalogPrices(t *testing.T) {
	f := newFixture()
	item := f.line("tomatoes", 2)
	item.Price = 0.01
	item.Name = "cheap tomatoes"

	orders, err := f.svc.Checkout(context.Background(), f.customer, CheckoutInput{
		Items:           []CartItem{item},
		DeliveryAddress: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, 2.50, orders[0].Items[0].Price)
	assert.Equal(t, "tomatoes", orders[0].Items[0].Name)
	assert.Equal(t, 5.00, orders[0].TotalAmount)
}

func TestCheckoutRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CheckoutInput
		msg  string
	}{
		{"empty cart", CheckoutInput{DeliveryAddress: "x"}, "Order must contain at least one item"},
		{"no address", CheckoutInput{Items: []CartItem{f.line("milk", 1)}}, "Delivery address is required"},
		{"bad payment", CheckoutInput{Items: []CartItem{f.line("milk", 1)}, DeliveryAddress: "x", PaymentMethod: "iou"}, `Invalid payment method "iou"`},
		{"zero quantity", CheckoutInput{Items: []CartItem{f.line("milk", 0)}, DeliveryAddress: "x"}, "Item 1: quantity must be greater than 0"},
		{"too many", CheckoutInput{Items: []CartItem{f.line("milk", 30), f.line("milk", 30)}, DeliveryAddress: "x"}, "Insufficient stock for milk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Checkout(ctx, f.customer, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.msg, utils.Message(err))
			assert.ErrorIs(t, err, utils.ErrInvalidInput)
		})
	}

	wrongFarmer := f.line("milk", 1)
	wrongFarmer.FarmerID = f.farmers["A"].Hex()
	_, err := f.svc.Checkout(ctx, f.customer, CheckoutInput{Items: []CartItem{wrongFarmer}, DeliveryAddress: "x"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.Equal(t, "Product milk is not sold by the given farmer", utils.Message(err))

	unknown := f.line("milk", 1)
	unknown.ProductID = primitive.NewObjectID().Hex()
	unknown.Name = "ghost"
	_, err = f.svc.Checkout(ctx, f.customer, CheckoutInput{Items: []CartItem{unknown}, DeliveryAddress: "x"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.Equal(t, "Product not found: ghost", utils.Message(err))

	assert.Empty(t, f.store.orders)
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	f := newFixture()
	f.store.failInsert = true

	_, err := f.svc.Checkout(context.Background(), f.customer, CheckoutInput{
		Items:           []CartItem{f.line("tomatoes", 1), f.line("maize", 1)},
		DeliveryAddress: "x",
	})
	require.Error(t, err)
	assert.Equal(t, 500, utils.StatusFor(err))
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.events.events)
}

func placeOne(t *testing.T, f *fixture) models.Order {
	orders, err := f.svc.Checkout(context.Background(), f.customer, CheckoutInput{
		Items:           []CartItem{f.line("tomatoes", 2)},
		DeliveryAddress: "x",
	})
	require.NoError(t, err)
	return orders[0]
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture()
	o := placeOne(t, f)
	farmer := f.farmers["A"]
	ctx := context.Background()

	for _, next := range []string{models.StatusConfirmed, models.StatusProcessing, models.StatusShipped} {
		got, err := f.svc.Update(ctx, farmer, o.ID, UpdateInput{Status: next})
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
		assert.Nil(t, got.ActualDelivery)
	}

	_, err := f.svc.Update(ctx, farmer, o.ID, UpdateInput{Status: models.StatusCancelled})
	assert.Equal(t, "invalid status transition from shipped to cancelled", utils.Message(err))

	got, err := f.svc.Update(ctx, farmer, o.ID, UpdateInput{Status: models.StatusDelivered, PaymentStatus: models.PaymentPaid})
	require.NoError(t, err)
	require.NotNil(t, got.ActualDelivery)
	assert.Equal(t, fixedNow, *got.ActualDelivery)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	_, err = f.svc.Update(ctx, farmer, o.ID, UpdateInput{Status: models.StatusDelivered})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	// created + 4 status changes
	assert.Len(t, f.events.events, 5)
	assert.Equal(t, EventOrderStatusChanged, f.events.events[4].Type)
	assert.Equal(t, models.StatusDelivered, f.events.events[4].Status)
}

func TestUpdateRejections(t *testing.T) {
	f := newFixture()
	o := placeOne(t, f)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.farmers["B"], o.ID, UpdateInput{Status: models.StatusConfirmed})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	_, err = f.svc.Update(ctx, f.farmers["A"], o.ID, UpdateInput{Status: models.StatusDelivered})
	assert.Equal(t, "invalid status transition from pending to delivered", utils.Message(err))

	_, err = f.svc.Update(ctx, f.farmers["A"], o.ID, UpdateInput{Status: "lost"})
	assert.Equal(t, `invalid status "lost"`, utils.Message(err))

	_, err = f.svc.Update(ctx, f.farmers["A"], o.ID, UpdateInput{PaymentStatus: "refunded"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.svc.Update(ctx, f.farmers["A"], o.ID, UpdateInput{})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.svc.Update(ctx, f.farmers["A"], primitive.NewObjectID(), UpdateInput{Status: models.StatusConfirmed})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCancelByCustomer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := placeOne(t, f)
	_, err := f.svc.Cancel(ctx, primitive.NewObjectID(), o.ID)
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	got, err := f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	o2 := placeOne(t, f)
	_, err = f.svc.Update(ctx, f.farmers["A"], o2.ID, UpdateInput{Status: models.StatusConfirmed})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.customer, o2.ID)
	assert.Equal(t, "Only pending orders can be cancelled", utils.Message(err))
}

func TestListAndVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOne(t, f)

	mine, err := f.svc.List(ctx, f.customer, globals.RoleCustomer, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	received, err := f.svc.List(ctx, f.farmers["A"], globals.RoleFarmer, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "Jane Buyer", received[0].CustomerName)

	none, err := f.svc.List(ctx, f.farmers["B"], globals.RoleFarmer, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.List(ctx, f.customer, globals.RoleCustomer, "lost")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.svc.Get(ctx, f.farmers["C"], o.ID)
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	_, err = f.svc.Get(ctx, f.farmers["A"], o.ID)
	assert.NoError(t, err)
}

func TestReceiptIsPDF(t *testing.T) {
	f := newFixture()
	o := placeOne(t, f)

	got, pdf, err := f.svc.Receipt(context.Background(), f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Buyer", got.CustomerName)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = f.svc.Receipt(context.Background(), f.farmers["B"], o.ID)
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func withCaller(r *http.Request, id primitive.ObjectID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, id.Hex())
	ctx = context.WithValue(ctx, globals.RoleKey, role)
	return r.WithContext(ctx)
}

func TestOrderHandlers(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	body := `{"items":[` +
		`{"productId":"` + f.products["tomatoes"].ID.Hex() + `","farmerId":"` + f.farmers["A"].Hex() + `","name":"tomatoes","price":2.5,"quantity":2},` +
		`{"productId":"` + f.products["maize"].ID.Hex() + `","farmerId":"` + f.farmers["B"].Hex() + `","name":"maize","price":1.2,"quantity":1}` +
		`],"deliveryAddress":"12 Market Rd"}`
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, withCaller(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), f.customer, globals.RoleCustomer), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	rec = httptest.NewRecorder()
	h.CreateOrder(rec, withCaller(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"items":"tomatoes"}`)), f.customer, globals.RoleCustomer), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var id primitive.ObjectID
	for oid, o := range f.store.orders {
		if o.FarmerID == f.farmers["A"] {
			id = oid
		}
	}

	rec = httptest.NewRecorder()
	h.UpdateOrder(rec, withCaller(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"shipped"}`)), f.farmers["A"], globals.RoleFarmer),
		httprouter.Params{{Key: "id", Value: id.Hex()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid status transition from pending to shipped"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.GetReceipt(rec, withCaller(httptest.NewRequest(http.MethodGet, "/", nil), f.customer, globals.RoleCustomer),
		httprouter.Params{{Key: "id", Value: id.Hex()}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.GetOrder(rec, withCaller(httptest.NewRequest(http.MethodGet, "/", nil), f.customer, globals.RoleCustomer),
		httprouter.Params{{Key: "id", Value: "zzz"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
