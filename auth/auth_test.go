package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agriconnect/globals"
	"agriconnect/middleware"
	"agriconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func customerInput() RegisterInput {
	return RegisterInput{
		FullName:    "Jane Buyer",
		Email:       "Jane@Example.com",
		PhoneNumber: "+254700000001",
		Password:    "secret1",
		Address:     "12 Market Rd",
	}
}

func farmerInput() RegisterInput {
	return RegisterInput{
		FullName:       "Sam Grower",
		Email:          "sam@farm.test",
		PhoneNumber:    "+254700000002",
		Password:       "secret2",
		FarmName:       "Sunrise Farm",
		FarmLocation:   "Eldoret",
		DeliveryRadius: 25,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store := newTestService()
	acc, err := svc.Register(context.Background(), globals.RoleCustomer, customerInput())
	require.NoError(t, err)

	stored, err := store.FindByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", stored.Email)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.True(t, CheckPassword(stored.Password, "secret1"))
	assert.Nil(t, stored.Farm)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, globals.RoleCustomer, RegisterInput{FullName: "X", PhoneNumber: "1"})
	require.Error(t, err)
	assert.Equal(t, "Missing required fields: email, password", utils.Message(err))
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	in := farmerInput()
	in.FarmName = ""
	in.DeliveryRadius = 0
	_, err = svc.Register(ctx, globals.RoleFarmer, in)
	assert.Equal(t, "Missing required fields: farmName, deliveryRadius", utils.Message(err))

	in = customerInput()
	in.Email = "not-an-email"
	_, err = svc.Register(ctx, globals.RoleCustomer, in)
	assert.Equal(t, "Invalid email address", utils.Message(err))

	in = customerInput()
	in.Password = "123"
	_, err = svc.Register(ctx, globals.RoleCustomer, in)
	assert.Equal(t, "Password must be at least 6 characters", utils.Message(err))
}

func TestRegisterDuplicateEmailAcrossRoles(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, globals.RoleCustomer, customerInput())
	require.NoError(t, err)

	in := farmerInput()
	in.Email = "jane@example.com"
	_, err = svc.Register(ctx, globals.RoleFarmer, in)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestAuthenticateResolvesRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, globals.RoleCustomer, customerInput())
	require.NoError(t, err)
	_, err = svc.Register(ctx, globals.RoleFarmer, farmerInput())
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, globals.RoleCustomer, p.Role)
	assert.Equal(t, "Jane Buyer", p.Name)

	p, err = svc.Authenticate(ctx, "SAM@farm.test", "secret2")
	require.NoError(t, err)
	assert.Equal(t, globals.RoleFarmer, p.Role)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.EqualError(t, err, "invalid credentials")

	_, err = svc.Authenticate(ctx, "jane@example.com", "wrong-password")
	assert.EqualError(t, err, "invalid credentials")
}

type revokerStub struct{ revoked map[string]bool }

func (r *revokerStub) Revoke(_ context.Context, jti string, _ time.Duration) error {
	r.revoked[jti] = true
	return nil
}

func (r *revokerStub) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r.revoked[jti], nil
}

func TestLoginLogoutFlow(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), globals.RoleFarmer, farmerInput())
	require.NoError(t, err)

	sessions := middleware.NewSessions([]byte("test-secret"), time.Hour, &revokerStub{revoked: map[string]bool{}})
	h := NewHandler(svc, sessions, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"sam@farm.test","password":"secret2"}`))
	h.Login(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User  struct{ Role string } `json:"user"`
		Token string                `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, globals.RoleFarmer, body.User.Role)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, globals.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// session endpoint accepts the cookie
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	sessions.Authenticate(h.Session)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"farmer"`)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookies[0])
	sessions.Authenticate(h.Logout)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the token is dead after logout
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	sessions.Authenticate(h.Session)(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, middleware.NewSessions([]byte("s"), time.Hour, nil), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ghost@example.com","password":"whatever"}`))
	h.Login(rec, req, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}

func TestRegisterHandler(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, middleware.NewSessions([]byte("s"), time.Hour, nil), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register/farmer", strings.NewReader(
		`{"fullName":"Sam","email":"sam@farm.test","phoneNumber":"1","password":"secret2","farmName":"F","farmLocation":"L","deliveryRadius":10}`))
	h.RegisterFarmer(rec, req, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), `"farmName":"F"`)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register/customer", strings.NewReader(`{`))
	h.RegisterCustomer(rec, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
