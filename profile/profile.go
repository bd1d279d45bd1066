package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agriconnect/auth"
	"agriconnect/globals"
	"agriconnect/models"
	"agriconnect/utils"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	FullName        *string  `json:"fullName"`
	PhoneNumber     *string  `json:"phoneNumber"`
	Address         *string  `json:"address"`
	FarmName        *string  `json:"farmName"`
	FarmLocation    *string  `json:"farmLocation"`
	FarmDescription *string  `json:"farmDescription"`
	DeliveryRadius  *float64 `json:"deliveryRadius"`
	CurrentPassword string   `json:"currentPassword"`
	NewPassword     string   `json:"newPassword"`
}

// FarmerCard is the public view of a farm.
type FarmerCard struct {
	ID              primitive.ObjectID `json:"id"`
	FullName        string             `json:"fullName"`
	FarmName        string             `json:"farmName"`
	FarmLocation    string             `json:"farmLocation"`
	FarmDescription string             `json:"farmDescription,omitempty"`
	DeliveryRadius  float64            `json:"deliveryRadius"`
	ProductsInStock int64              `json:"productsInStock"`
	MemberSince     time.Time          `json:"memberSince"`
}

// StockCounter counts a farmer's in-stock products.
type StockCounter func(ctx context.Context, farmerID primitive.ObjectID) (int64, error)

// Cache holds rendered farmer cards between requests.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Del(ctx context.Context, key string) error
}

type Service struct {
	accounts auth.Store
	hasher   *auth.Service
	inStock  StockCounter
	cache    Cache
	now      func() time.Time
}

func NewService(accounts auth.Store, hasher *auth.Service, inStock StockCounter) *Service {
	return &Service{accounts: accounts, hasher: hasher, inStock: inStock, now: time.Now}
}

// WithCache enables farmer card caching.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

func cardKey(id primitive.ObjectID) string {
	return "farmer:" + id.Hex()
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID, role string) (*models.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, auth.ErrAccountNotFound) {
		return nil, utils.NotFound("Profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if acc.Role != role {
		return nil, utils.Unauthorized("Unauthorized")
	}
	return acc, nil
}

func trimmed(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return strings.TrimSpace(*p), true
}

// Update applies a partial profile update and an optional password change.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, role string, in UpdateInput) (*models.Account, error) {
	acc, err := s.Get(ctx, id, role)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if v, ok := trimmed(in.FullName); ok {
		if v == "" {
			return nil, utils.Invalid("Full name cannot be empty")
		}
		set["fullName"] = v
	}
	if v, ok := trimmed(in.PhoneNumber); ok {
		if v == "" {
			return nil, utils.Invalid("Phone number cannot be empty")
		}
		set["phoneNumber"] = v
	}
	if v, ok := trimmed(in.Address); ok {
		set["address"] = v
	}

	if role == globals.RoleFarmer {
		if v, ok := trimmed(in.FarmName); ok {
			if v == "" {
				return nil, utils.Invalid("Farm name cannot be empty")
			}
			set["farm.farmName"] = v
		}
		if v, ok := trimmed(in.FarmLocation); ok {
			if v == "" {
				return nil, utils.Invalid("Farm location cannot be empty")
			}
			set["farm.farmLocation"] = v
		}
		if v, ok := trimmed(in.FarmDescription); ok {
			set["farm.farmDescription"] = v
		}
		if in.DeliveryRadius != nil {
			if *in.DeliveryRadius <= 0 {
				return nil, utils.Invalid("Delivery radius must be greater than 0")
			}
			set["farm.deliveryRadius"] = *in.DeliveryRadius
		}
	}

	if in.NewPassword != "" || in.CurrentPassword != "" {
		if !auth.CheckPassword(acc.Password, in.CurrentPassword) {
			return nil, utils.Invalid("Current password is incorrect")
		}
		if len(in.NewPassword) < auth.MinPasswordLength {
			return nil, utils.Invalid("Password must be at least %d characters", auth.MinPasswordLength)
		}
		hash, err := s.hasher.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		set["password"] = hash
	}

	if len(set) == 0 {
		return nil, utils.Invalid("No fields to update")
	}
	set["updatedAt"] = s.now().UTC()

	updated, err := s.accounts.Update(ctx, id, set)
	switch {
	case errors.Is(err, auth.ErrDuplicatePhone):
		return nil, utils.Conflict("An account with this phone number already exists")
	case errors.Is(err, auth.ErrAccountNotFound):
		return nil, utils.NotFound("Profile not found")
	case err != nil:
		return nil, fmt.Errorf("update account: %w", err)
	}
	if s.cache != nil && updated.Role == globals.RoleFarmer {
		if err := s.cache.Del(ctx, cardKey(id)); err != nil {
			log.Warn().Err(err).Str("farmer_id", id.Hex()).Msg("farmer card invalidation failed")
		}
	}
	return updated, nil
}

// FarmerCard returns the public farm profile with the in-stock product count.
func (s *Service) FarmerCard(ctx context.Context, id primitive.ObjectID) (*FarmerCard, error) {
	if s.cache != nil {
		var cached FarmerCard
		ok, err := s.cache.GetJSON(ctx, cardKey(id), &cached)
		if err != nil {
			log.Warn().Err(err).Msg("farmer card cache read failed")
		}
		if ok {
			return &cached, nil
		}
	}

	card, err := s.loadCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cardKey(id), card); err != nil {
			log.Warn().Err(err).Msg("farmer card cache write failed")
		}
	}
	return card, nil
}

func (s *Service) loadCard(ctx context.Context, id primitive.ObjectID) (*FarmerCard, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, auth.ErrAccountNotFound) || (err == nil && acc.Role != globals.RoleFarmer) {
		return nil, utils.NotFound("Farmer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find farmer: %w", err)
	}

	card := &FarmerCard{ID: acc.ID, FullName: acc.FullName, MemberSince: acc.CreatedAt}
	if acc.Farm != nil {
		card.FarmName = acc.Farm.FarmName
		card.FarmLocation = acc.Farm.FarmLocation
		card.FarmDescription = acc.Farm.FarmDescription
		card.DeliveryRadius = acc.Farm.DeliveryRadius
	}
	if s.inStock != nil {
		n, err := s.inStock(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count products: %w", err)
		}
		card.ProductsInStock = n
	}
	return card, nil
}
