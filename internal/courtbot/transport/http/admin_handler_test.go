package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

// --- Mocks ---

type MockQueuedLookupRepository struct {
	mock.Mock
}

func (m *MockQueuedLookupRepository) Create(ctx context.Context, lookup *domain.QueuedLookup) error {
	args := m.Called(ctx, lookup)
	return args.Error(0)
}

func (m *MockQueuedLookupRepository) FindUnresolvedByPhone(ctx context.Context, phoneNumber string) (*domain.QueuedLookup, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueuedLookup), args.Error(1)
}

func (m *MockQueuedLookupRepository) ListUnresolved(ctx context.Context, limit int) ([]*domain.QueuedLookup, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueuedLookup), args.Error(1)
}

func (m *MockQueuedLookupRepository) Resolve(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// --- Tests ---

const testAdminPassword = "correct horse battery staple"

func setupAdminTest(t *testing.T) (*chi.Mux, *MockQueuedLookupRepository) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	assert.NoError(t, err)

	mockQueue := new(MockQueuedLookupRepository)
	handler := NewAdminHandler(mockQueue, AdminConfig{
		PasswordHash:     string(hash),
		JWTSecret:        "test-secret",
		TokenExpiryHours: 1,
	}, testLogger(), validator.New())
	auth := NewAuthMiddleware("test-secret", testLogger())

	r := chi.NewRouter()
	handler.RegisterRoutes(r, auth)
	return r, mockQueue
}

func loginAdmin(t *testing.T, router *chi.Mux, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Password: password})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAdminLogin_IssuesToken(t *testing.T) {
	router, _ := setupAdminTest(t)

	rr := loginAdmin(t, router, testAdminPassword)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp LoginResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestAdminLogin_RejectsWrongPassword(t *testing.T) {
	router, _ := setupAdminTest(t)

	rr := loginAdmin(t, router, "wrong")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminQueuedLookups_RequireToken(t *testing.T) {
	router, _ := setupAdminTest(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/queued-lookups", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminQueuedLookups_ListsUnresolved(t *testing.T) {
	router, mockQueue := setupAdminTest(t)

	entry := domain.NewQueuedLookup(uuid.New(), "ABC123", "+15105551234", time.Now().UTC(), 16)
	mockQueue.On("ListUnresolved", mock.Anything, adminListLimit).Return([]*domain.QueuedLookup{entry}, nil)

	loginResp := loginAdmin(t, router, testAdminPassword)
	var login LoginResponse
	assert.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodGet, "/admin/queued-lookups", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp []QueuedLookupResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, "ABC123", resp[0].Citation)
}

func TestAdminResolve_ReportsAlreadyResolved(t *testing.T) {
	router, mockQueue := setupAdminTest(t)

	id := uuid.New()
	mockQueue.On("Resolve", mock.Anything, id).Return(false, nil)

	loginResp := loginAdmin(t, router, testAdminPassword)
	var login LoginResponse
	assert.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodPost, "/admin/queued-lookups/"+id.String()+"/resolve", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
