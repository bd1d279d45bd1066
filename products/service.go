package products

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductInput is the body of create and update requests. On update only the
// non-nil fields are applied.
type ProductInput struct {
	Name        *string    `json:"name"`
	Category    *string    `json:"category"`
	Price       *float64   `json:"price"`
	Unit        *string    `json:"unit"`
	Quantity    *int       `json:"quantity"`
	Description *string    `json:"description"`
	HarvestDate *time.Time `json:"harvestDate"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	Images      []string   `json:"images"`
	Organic     *bool      `json:"organic"`
}

type ListResult struct {
	Products   []models.ProductListing `json:"products"`
	Pagination Pagination              `json:"pagination"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CountInStock is exposed for the public farmer card.
func (s *Service) CountInStock(ctx context.Context, farmerID primitive.ObjectID) (int64, error) {
	return s.store.CountInStock(ctx, farmerID)
}

func (s *Service) List(ctx context.Context, q Query) (*ListResult, error) {
	listings, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := s.attachRatings(ctx, listings); err != nil {
		return nil, err
	}
	return &ListResult{
		Products:   listings,
		Pagination: NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.ProductListing, error) {
	l, err := s.store.Listing(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return nil, utils.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	page := []models.ProductListing{*l}
	if err := s.attachRatings(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// attachRatings fills rating fields for a page with a single aggregation.
func (s *Service) attachRatings(ctx context.Context, listings []models.ProductListing) error {
	ids := make([]primitive.ObjectID, len(listings))
	for i := range listings {
		ids[i] = listings[i].ID
	}
	ratings, err := s.store.Ratings(ctx, ids)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}
	for i := range listings {
		l := &listings[i]
		l.InStock = l.Product.InStock()
		if l.Images == nil {
			l.Images = []string{}
		}
		if r, ok := ratings[l.ID]; ok {
			l.AverageRating = math.Round(r.AverageRating*10) / 10
			l.ReviewCount = r.ReviewCount
		}
	}
	return nil
}

func (s *Service) ListMine(ctx context.Context, farmerID primitive.ObjectID) ([]models.Product, error) {
	ps, err := s.store.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("list farmer products: %w", err)
	}
	return ps, nil
}

func validateDates(harvest, expiry *time.Time) error {
	if harvest != nil && expiry != nil && expiry.Before(*harvest) {
		return utils.Invalid("Expiry date cannot be before harvest date")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, farmerID primitive.ObjectID, in ProductInput) (*models.Product, error) {
	var missing []string
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Category == nil || *in.Category == "" {
		missing = append(missing, "category")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.Unit == nil || strings.TrimSpace(*in.Unit) == "" {
		missing = append(missing, "unit")
	}
	if in.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return nil, utils.Invalid("Missing required fields: %s", strings.Join(missing, ", "))
	}

	now := s.now().UTC()
	p := &models.Product{
		Name:        strings.TrimSpace(*in.Name),
		Category:    *in.Category,
		Price:       *in.Price,
		Unit:        strings.TrimSpace(*in.Unit),
		Quantity:    *in.Quantity,
		HarvestDate: in.HarvestDate,
		ExpiryDate:  in.ExpiryDate,
		FarmerID:    farmerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Organic != nil {
		p.Organic = *in.Organic
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	images, err := NormalizeImages(in.Images)
	if err != nil {
		return nil, err
	}
	p.Images = images

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func validateProduct(p *models.Product) error {
	if !slices.Contains(models.ProductCategories, p.Category) {
		return utils.Invalid("Invalid category %q", p.Category)
	}
	if p.Price <= 0 {
		return utils.Invalid("Price must be greater than 0")
	}
	if p.Quantity < 0 {
		return utils.Invalid("Quantity cannot be negative")
	}
	return validateDates(p.HarvestDate, p.ExpiryDate)
}

// owned loads a product and checks that farmerID owns it.
func (s *Service) owned(ctx context.Context, farmerID, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return nil, utils.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if p.FarmerID != farmerID {
		return nil, utils.Unauthorized("Not authorized to modify this product")
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, farmerID, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	current, err := s.owned(ctx, farmerID, id)
	if err != nil {
		return nil, err
	}

	next := *current
	set := bson.M{}
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
		if next.Name == "" {
			return nil, utils.Invalid("Name cannot be empty")
		}
		set["name"] = next.Name
	}
	if in.Category != nil {
		next.Category = *in.Category
		set["category"] = next.Category
	}
	if in.Price != nil {
		next.Price = *in.Price
		set["price"] = next.Price
	}
	if in.Unit != nil {
		next.Unit = strings.TrimSpace(*in.Unit)
		if next.Unit == "" {
			return nil, utils.Invalid("Unit cannot be empty")
		}
		set["unit"] = next.Unit
	}
	if in.Quantity != nil {
		next.Quantity = *in.Quantity
		set["quantity"] = next.Quantity
	}
	if in.Description != nil {
		set["description"] = strings.TrimSpace(*in.Description)
	}
	if in.HarvestDate != nil {
		next.HarvestDate = in.HarvestDate
		set["harvestDate"] = *in.HarvestDate
	}
	if in.ExpiryDate != nil {
		next.ExpiryDate = in.ExpiryDate
		set["expiryDate"] = *in.ExpiryDate
	}
	if in.Organic != nil {
		set["organic"] = *in.Organic
	}
	if in.Images != nil {
		images, err := NormalizeImages(in.Images)
		if err != nil {
			return nil, err
		}
		set["images"] = images
	}
	if len(set) == 0 {
		return nil, utils.Invalid("No fields to update")
	}
	if err := validateProduct(&next); err != nil {
		return nil, err
	}
	set["updatedAt"] = s.now().UTC()

	p, err := s.store.Update(ctx, id, set)
	if errors.Is(err, ErrProductNotFound) {
		return nil, utils.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes a product unless an open order still references it.
func (s *Service) Delete(ctx context.Context, farmerID, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, farmerID, id); err != nil {
		return err
	}
	active, err := s.store.HasActiveOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("check active orders: %w", err)
	}
	if active {
		return utils.Invalid("Cannot delete product with active orders")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return utils.NotFound("Product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
