package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
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

func optionalID(raw string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	return primitive.ObjectIDFromHex(raw)
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	review, err := h.svc.Create(ctx, customerID, in)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

func (h *Handler) CheckReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	customerID, ok := callerID(w, r)
	if !ok {
		return
	}
	productID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("productId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	review, err := h.svc.Check(ctx, customerID, productID)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"hasReviewed": review != nil,
		"review":      review,
	})
}

func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	productID, err := optionalID(q.Get("productId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	farmerID, err := optionalID(q.Get("farmerId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid farmer ID")
		return
	}
	page, limit := utils.ParsePage(q, defaultPageSize, maxPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.svc.List(ctx, ListFilter{ProductID: productID, FarmerID: farmerID, Page: page, Limit: limit})
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) MarkHelpful(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	n, err := h.svc.MarkHelpful(ctx, id)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"helpful": n})
}
