package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"agriconnect/models"
	"agriconnect/products"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxCommentLength = 1000
	defaultPageSize  = 10
	maxPageSize      = 50
)

type CreateInput struct {
	ProductID string   `json:"productId"`
	OrderID   string   `json:"orderId"`
	Rating    float64  `json:"rating"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

type ListResult struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"averageRating"`
	TotalReviews  int64           `json:"totalReviews"`
	Page          int             `json:"page"`
	Limit         int             `json:"limit"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create records a review for a product the customer received in a delivered order.
func (s *Service) Create(ctx context.Context, customerID primitive.ObjectID, in CreateInput) (*models.Review, error) {
	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		return nil, utils.Invalid("Invalid product ID")
	}
	orderID, err := primitive.ObjectIDFromHex(in.OrderID)
	if err != nil {
		return nil, utils.Invalid("Invalid order ID")
	}
	if in.Rating != math.Trunc(in.Rating) || in.Rating < 1 || in.Rating > 5 {
		return nil, utils.Invalid("Rating must be an integer between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if len(comment) > MaxCommentLength {
		return nil, utils.Invalid("Comment cannot exceed %d characters", MaxCommentLength)
	}

	order, err := s.store.DeliveredOrder(ctx, orderID, customerID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, utils.Invalid("Order not found or not delivered")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if !order.HasProduct(productID) {
		return nil, utils.Invalid("Product not found in this order")
	}

	_, err = s.store.FindByCustomerProduct(ctx, customerID, productID)
	if err == nil {
		return nil, utils.Invalid("You have already reviewed this product")
	}
	if !errors.Is(err, ErrReviewNotFound) {
		return nil, fmt.Errorf("find review: %w", err)
	}

	var images []string
	if len(in.Images) > 0 {
		if images, err = products.NormalizeImages(in.Images); err != nil {
			return nil, err
		}
	}

	r := &models.Review{
		CustomerID: customerID,
		ProductID:  productID,
		FarmerID:   order.FarmerID,
		OrderID:    orderID,
		Rating:     int(in.Rating),
		Comment:    comment,
		Images:     images,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Insert(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicateReview) {
			return nil, utils.Invalid("You have already reviewed this product")
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return r, nil
}

// Check reports whether the customer already reviewed the product.
func (s *Service) Check(ctx context.Context, customerID, productID primitive.ObjectID) (*models.Review, error) {
	r, err := s.store.FindByCustomerProduct(ctx, customerID, productID)
	if errors.Is(err, ErrReviewNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.ProductID.IsZero() && f.FarmerID.IsZero() {
		return nil, utils.Invalid("productId or farmerId is required")
	}
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	sum, err := s.store.Summarize(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("summarize reviews: %w", err)
	}
	return &ListResult{
		Reviews:       list,
		AverageRating: math.Round(sum.AverageRating*10) / 10,
		TotalReviews:  sum.TotalReviews,
		Page:          f.Page,
		Limit:         f.Limit,
	}, nil
}

// MarkHelpful increments the helpful counter. Callers are not deduplicated.
func (s *Service) MarkHelpful(ctx context.Context, id primitive.ObjectID) (int, error) {
	n, err := s.store.IncHelpful(ctx, id)
	if errors.Is(err, ErrReviewNotFound) {
		return 0, utils.NotFound("Review not found")
	}
	if err != nil {
		return 0, fmt.Errorf("mark helpful: %w", err)
	}
	return n, nil
}
