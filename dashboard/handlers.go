package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"agriconnect/models"
	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Dashboard loads the farmer's orders once and computes every panel from them.
func (s *Service) Dashboard(ctx context.Context, farmerID primitive.ObjectID, timeRange string) (*models.DashboardStats, error) {
	if timeRange == "" {
		timeRange = DefaultRange
	}
	now := s.now().UTC()
	_, prev, err := Windows(now, timeRange)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.OrdersSince(ctx, farmerID, Earliest(now, prev))
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	active, err := s.store.CountInStock(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	return Compute(now, timeRange, orders, active)
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	farmerID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.svc.Dashboard(ctx, farmerID, r.URL.Query().Get("timeRange"))
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}
