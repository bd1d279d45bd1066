package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return id, true
}

func orderID(w http.ResponseWriter, ps httprouter.Params) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body: items must be a list")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.svc.Checkout(ctx, customerID, in)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}

	log.Info().Str("customer_id", customerID.Hex()).Int("orders", len(orders)).Msg("checkout completed")
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Orders created successfully",
		"orders":  orders,
		"count":   len(orders),
	})
}

func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.svc.List(ctx, id, utils.GetRoleFromRequest(r), r.URL.Query().Get("status"))
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"orders": orders, "count": len(orders)})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, ps)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Get(ctx, uid, id)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, ps)
	if !ok {
		return
	}
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Update(ctx, uid, id, in)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order updated successfully", "order": o})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, ps)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Cancel(ctx, uid, id)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order cancelled", "order": o})
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	uid, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, ps)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, pdf, err := h.svc.Receipt(ctx, uid, id)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+o.ID.Hex()+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
