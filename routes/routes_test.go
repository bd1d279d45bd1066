package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agriconnect/auth"
	"agriconnect/dashboard"
	"agriconnect/globals"
	"agriconnect/middleware"
	"agriconnect/notify"
	"agriconnect/orders"
	"agriconnect/products"
	"agriconnect/profile"
	"agriconnect/ratelim"
	"agriconnect/reviews"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores are nil: every request below is rejected before reaching a service.
func testRouter() (http.Handler, *middleware.Sessions) {
	sessions := middleware.NewSessions([]byte("test-secret"), time.Hour, nil)
	h := Handlers{
		Sessions:  sessions,
		Limiter:   ratelim.NewRateLimiter(60, 1),
		Auth:      auth.NewHandler(auth.NewService(nil), sessions, false),
		Profile:   profile.NewHandler(profile.NewService(nil, nil, nil)),
		Products:  products.NewHandler(products.NewService(nil)),
		Orders:    orders.NewHandler(orders.NewService(nil, nil, 5)),
		Reviews:   reviews.NewHandler(reviews.NewService(nil)),
		Dashboard: dashboard.NewHandler(dashboard.NewService(nil)),
		Hub:       notify.NewHub(),
		Upgrader:  notify.NewUpgrader([]string{"*"}),
	}
	return New(h), sessions
}

func TestHealth(t *testing.T) {
	router, _ := testRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoleGating(t *testing.T) {
	router, sessions := testRouter()
	id := primitive.NewObjectID().Hex()
	customer, _, err := sessions.Issue(id, globals.RoleCustomer)
	require.NoError(t, err)
	farmer, _, err := sessions.Issue(id, globals.RoleFarmer)
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"anonymous checkout", http.MethodPost, "/api/orders", ""},
		{"farmer checkout", http.MethodPost, "/api/orders", farmer},
		{"customer fulfils", http.MethodPatch, "/api/orders/" + id, customer},
		{"farmer cancels", http.MethodPost, "/api/orders/" + id + "/cancel", farmer},
		{"customer inventory", http.MethodPost, "/api/farmer/products", customer},
		{"customer dashboard", http.MethodGet, "/api/farmer/dashboard", customer},
		{"farmer reviews", http.MethodPost, "/api/reviews", farmer},
		{"anonymous helpful", http.MethodPost, "/api/reviews/" + id + "/helpful", ""},
		{"farmer on customer profile", http.MethodGet, "/api/customer/profile", farmer},
		{"customer live feed as farmer", http.MethodGet, "/api/farmer/orders/live", customer},
		{"anonymous orders", http.MethodGet, "/api/orders", ""},
		{"anonymous session", http.MethodGet, "/api/auth/session", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}
}

func TestSessionRoute(t *testing.T) {
	router, sessions := testRouter()
	id := primitive.NewObjectID().Hex()
	token, _, err := sessions.Issue(id, globals.RoleFarmer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: globals.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+id+`","role":"farmer"}`, rec.Body.String())
}

func TestLoginIsRateLimited(t *testing.T) {
	router, _ := testRouter()

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	// burst of one: the first request reaches the handler and fails on the empty body
	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
