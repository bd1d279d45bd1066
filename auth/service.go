package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"agriconnect/globals"
	"agriconnect/models"
	"agriconnect/utils"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
var ErrInvalidCredentials = utils.Unauthorized("invalid credentials")

type RegisterInput struct {
	FullName        string  `json:"fullName"`
	Email           string  `json:"email"`
	PhoneNumber     string  `json:"phoneNumber"`
	Password        string  `json:"password"`
	Address         string  `json:"address"`
	FarmName        string  `json:"farmName"`
	FarmLocation    string  `json:"farmLocation"`
	FarmDescription string  `json:"farmDescription"`
	DeliveryRadius  float64 `json:"deliveryRadius"`
}

type Service struct {
	store Store
	cost  int
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.FarmName = strings.TrimSpace(in.FarmName)
	in.FarmLocation = strings.TrimSpace(in.FarmLocation)
	in.FarmDescription = strings.TrimSpace(in.FarmDescription)
}

// Validate lists missing fields in declaration order before checking shapes.
func (in RegisterInput) Validate(role string) error {
	var missing []string
	req := []struct{ name, val string }{
		{"fullName", in.FullName},
		{"email", in.Email},
		{"phoneNumber", in.PhoneNumber},
		{"password", in.Password},
	}
	if role == globals.RoleFarmer {
		req = append(req,
			struct{ name, val string }{"farmName", in.FarmName},
			struct{ name, val string }{"farmLocation", in.FarmLocation},
		)
	}
	for _, f := range req {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if role == globals.RoleFarmer && in.DeliveryRadius == 0 {
		missing = append(missing, "deliveryRadius")
	}
	if len(missing) > 0 {
		return utils.Invalid("Missing required fields: %s", strings.Join(missing, ", "))
	}

	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return utils.Invalid("Invalid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return utils.Invalid("Password must be at least %d characters", MinPasswordLength)
	}
	if role == globals.RoleFarmer && in.DeliveryRadius < 0 {
		return utils.Invalid("Delivery radius must be greater than 0")
	}
	return nil
}

// Register validates input, hashes the password and stores a new account.
func (s *Service) Register(ctx context.Context, role string, in RegisterInput) (*models.Account, error) {
	if role != globals.RoleCustomer && role != globals.RoleFarmer {
		return nil, utils.Invalid("Invalid role")
	}
	in.normalize()
	if err := in.Validate(role); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	acc := &models.Account{
		Role:        role,
		FullName:    in.FullName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Password:    hash,
		Address:     in.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if role == globals.RoleFarmer {
		acc.Farm = &models.FarmProfile{
			FarmName:        in.FarmName,
			FarmLocation:    in.FarmLocation,
			FarmDescription: in.FarmDescription,
			DeliveryRadius:  in.DeliveryRadius,
		}
	}

	if err := s.store.Insert(ctx, acc); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, utils.Conflict("An account with this email already exists")
		case errors.Is(err, ErrDuplicatePhone):
			return nil, utils.Conflict("An account with this phone number already exists")
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

// Authenticate resolves credentials to a principal with a single lookup.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.Principal{}, utils.Invalid("Email and password are required")
	}

	acc, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return models.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("find account: %w", err)
	}
	if !CheckPassword(acc.Password, password) {
		return models.Principal{}, ErrInvalidCredentials
	}
	return acc.Principal(), nil
}
