package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agriconnect/globals"
	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRevoker struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newMemRevoker() *memRevoker { return &memRevoker{jtis: map[string]time.Duration{}} }

func (m *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[jti] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

func whoami(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"id":   utils.GetUserIDFromRequest(r),
		"role": utils.GetRoleFromRequest(r),
	})
}

func TestIssueAndParse(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour, nil)
	token, claims, err := s.Issue("u1", globals.RoleFarmer)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	got, err := s.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, globals.RoleFarmer, got.Role)
	assert.Equal(t, claims.ID, got.ID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour, nil)
	other := NewSessions([]byte("other"), time.Hour, nil)
	forged, _, err := other.Issue("u1", globals.RoleCustomer)
	require.NoError(t, err)

	_, err = s.Parse(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewSessions([]byte("secret"), time.Hour, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("u1", globals.RoleCustomer)
	require.NoError(t, err)
	_, err = s.Parse(context.Background(), old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	rev := newMemRevoker()
	s := NewSessions([]byte("secret"), time.Hour, rev)
	token, claims, err := s.Issue("u1", globals.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(context.Background(), claims))
	assert.Greater(t, rev.jtis[claims.ID], 50*time.Minute)

	_, err = s.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateCookieAndBearer(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour, nil)
	token, _, err := s.Issue("u42", globals.RoleCustomer)
	require.NoError(t, err)
	h := s.Authenticate(whoami)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: globals.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u42"`)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec = httptest.NewRecorder()
	h(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour, nil)
	customer, _, _ := s.Issue("c1", globals.RoleCustomer)
	farmer, _, _ := s.Issue("f1", globals.RoleFarmer)
	h := s.RequireRole(globals.RoleFarmer, whoami)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"farmer allowed", farmer, http.StatusOK},
		{"customer rejected", customer, http.StatusUnauthorized},
		{"anonymous rejected", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/farmer/dashboard", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h(rec, req, nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHTTPMiddlewareChain(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(globals.RequestIDKey).(string)
		assert.NotEmpty(t, id)
		w.WriteHeader(http.StatusTeapot)
	})
	h := Recover(RequestID(Logging(SecurityHeaders(inner))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDReuse(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	const supplied = "0b7c5d2e-7a8f-4c1e-9d3b-2f6a1e4c8b90"

	cases := map[string]bool{supplied: true, "": false, "not-a-uuid": false, "<script>": false}
	for in, reused := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", in)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-ID")
		if reused {
			assert.Equal(t, in, got)
		} else {
			assert.NotEqual(t, in, got)
			assert.Len(t, got, 36)
		}
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
