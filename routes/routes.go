package routes

import (
	"net/http"

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

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Sessions  *middleware.Sessions
	Limiter   *ratelim.RateLimiter
	Auth      *auth.Handler
	Profile   *profile.Handler
	Products  *products.Handler
	Orders    *orders.Handler
	Reviews   *reviews.Handler
	Dashboard *dashboard.Handler
	Hub       *notify.Hub
	Upgrader  websocket.Upgrader
}

func Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func AddAuthRoutes(router *httprouter.Router, h Handlers) {
	router.POST("/api/auth/register/customer", h.Limiter.Limit(h.Auth.RegisterCustomer))
	router.POST("/api/auth/register/farmer", h.Limiter.Limit(h.Auth.RegisterFarmer))
	router.POST("/api/auth/login", h.Limiter.Limit(h.Auth.Login))
	router.POST("/api/auth/logout", h.Sessions.Authenticate(h.Auth.Logout))
	router.GET("/api/auth/session", h.Sessions.Authenticate(h.Auth.Session))
}

func AddProfileRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/customer/profile", h.Sessions.RequireRole(globals.RoleCustomer, h.Profile.GetProfile))
	router.PUT("/api/customer/profile", h.Sessions.RequireRole(globals.RoleCustomer, h.Profile.UpdateProfile))
	router.GET("/api/farmer/profile", h.Sessions.RequireRole(globals.RoleFarmer, h.Profile.GetProfile))
	router.PUT("/api/farmer/profile", h.Sessions.RequireRole(globals.RoleFarmer, h.Profile.UpdateProfile))
	router.GET("/api/farmers/:id", h.Profile.GetFarmer)
}

func AddProductRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/products", h.Products.GetProducts)
	router.GET("/api/products/:id", h.Products.GetProduct)

	router.GET("/api/farmer/products", h.Sessions.RequireRole(globals.RoleFarmer, h.Products.GetMyProducts))
	router.POST("/api/farmer/products", h.Sessions.RequireRole(globals.RoleFarmer, h.Products.CreateProduct))
	router.PUT("/api/farmer/products/:id", h.Sessions.RequireRole(globals.RoleFarmer, h.Products.UpdateProduct))
	router.DELETE("/api/farmer/products/:id", h.Sessions.RequireRole(globals.RoleFarmer, h.Products.DeleteProduct))
}

func AddOrderRoutes(router *httprouter.Router, h Handlers) {
	router.POST("/api/orders", h.Sessions.RequireRole(globals.RoleCustomer, h.Orders.CreateOrder))
	router.GET("/api/orders", h.Sessions.Authenticate(h.Orders.GetOrders))
	router.GET("/api/orders/:id", h.Sessions.Authenticate(h.Orders.GetOrder))
	router.PATCH("/api/orders/:id", h.Sessions.RequireRole(globals.RoleFarmer, h.Orders.UpdateOrder))
	router.POST("/api/orders/:id/cancel", h.Sessions.RequireRole(globals.RoleCustomer, h.Orders.CancelOrder))
	router.GET("/api/orders/:id/receipt", h.Sessions.Authenticate(h.Orders.GetReceipt))
}

func AddReviewsRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/reviews", h.Reviews.GetReviews)
	router.POST("/api/reviews", h.Sessions.RequireRole(globals.RoleCustomer, h.Reviews.AddReview))
	router.GET("/api/reviews/check", h.Sessions.RequireRole(globals.RoleCustomer, h.Reviews.CheckReview))
	router.POST("/api/reviews/:id/helpful", h.Sessions.Authenticate(h.Reviews.MarkHelpful))
}

func AddDashboardRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/farmer/dashboard", h.Sessions.RequireRole(globals.RoleFarmer, h.Dashboard.GetDashboard))
}

func AddLiveRoutes(router *httprouter.Router, h Handlers) {
	live := notify.LiveOrders(h.Hub, h.Upgrader)
	router.GET("/api/farmer/orders/live", h.Sessions.RequireRole(globals.RoleFarmer, live))
	router.GET("/api/customer/orders/live", h.Sessions.RequireRole(globals.RoleCustomer, live))
}

// New builds the router with every API route registered.
func New(h Handlers) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Health)

	AddAuthRoutes(router, h)
	AddProfileRoutes(router, h)
	AddProductRoutes(router, h)
	AddOrderRoutes(router, h)
	AddReviewsRoutes(router, h)
	AddDashboardRoutes(router, h)
	AddLiveRoutes(router, h)

	return router
}
