package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"orda-market/internal/model"
	"orda-market/internal/policy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func okHandler(captured **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = ActorFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	user := &model.User{
		ID:           uuid.New(),
		Username:     "alice",
		Capabilities: []string{policy.CapOrderAdmin},
	}

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByToken", mock.Anything, "tok-123").Return(user, nil)

	var actor *model.User
	handler := Auth(mockUsers, zerolog.Nop())(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, user.ID, actor.ID)
	assert.True(t, actor.HasCapability(policy.CapOrderAdmin))
}

func TestAuth_MissingToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	handler := Auth(mockUsers, zerolog.Nop())(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockUsers.AssertNotCalled(t, "GetByToken")
}

func TestAuth_UnknownToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByToken", mock.Anything, "bogus").Return(nil, nil)

	handler := Auth(mockUsers, zerolog.Nop())(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_OpenEndpoints(t *testing.T) {
	mockUsers := new(MockUserRepository)
	handler := Auth(mockUsers, zerolog.Nop())(okHandler(nil))

	for _, path := range []string{"/health", "/api/products", "/api/products/abc"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s should not require auth", path)
	}
	mockUsers.AssertNotCalled(t, "GetByToken")
}

func TestCORS_PreflightRequest(t *testing.T) {
	handler := CORS(okHandler(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRecovery_PanicReturns500(t *testing.T) {
	handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_PassesThrough(t *testing.T) {
	handler := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
