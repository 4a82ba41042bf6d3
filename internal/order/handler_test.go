package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/auth"
	"restomanage/internal/order"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID *uuid.UUID, orderType string, address order.ShippingAddress, lines []order.LineInput) (*order.Order, error) {
	args := m.Called(ctx, userID, orderType, address, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]order.Order, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderService) ProcessProductionOrder(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func newOrderRouter(svc order.Service) http.Handler {
	h := order.NewHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterProcessRoute(r)
	})
	return r
}

func validOrderBody(t *testing.T, productID uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"order_type": order.TypeProductionOrder,
		"shipping_address": map[string]string{
			"line1":       "12 Baker Street",
			"city":        "Astana",
			"postal_code": "010000",
			"country":     "KZ",
		},
		"items": []map[string]interface{}{
			{"product_id": productID.String(), "quantity": 3},
		},
	})
	require.NoError(t, err)
	return body
}

func TestOrderHandler_CreateOrder_LineConfigErrorsAre422(t *testing.T) {
	mockSvc := new(MockOrderService)
	router := newOrderRouter(mockSvc)

	productID := uuid.Must(uuid.NewV4())
	svcErr := &order.LineConfigError{
		Errors: []order.LineError{{ProductID: productID, Message: "product has no recipe configured"}},
	}
	mockSvc.On("CreateOrder", mock.Anything, mock.Anything, order.TypeProductionOrder, mock.Anything, mock.Anything).
		Return(nil, svcErr).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validOrderBody(t, productID)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Errors []order.LineError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	require.Equal(t, productID, resp.Errors[0].ProductID)
}

func TestOrderHandler_CreateOrder_ShortagesAre409(t *testing.T) {
	mockSvc := new(MockOrderService)
	router := newOrderRouter(mockSvc)

	productID := uuid.Must(uuid.NewV4())
	svcErr := &order.ShortageError{
		Shortages: []order.Shortage{{Name: "Flour"}},
	}
	mockSvc.On("CreateOrder", mock.Anything, mock.Anything, order.TypeProductionOrder, mock.Anything, mock.Anything).
		Return(nil, svcErr).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(validOrderBody(t, productID)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Flour")
}

func TestOrderHandler_CreateOrder_MalformedJSON(t *testing.T) {
	mockSvc := new(MockOrderService)
	router := newOrderRouter(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte(`{"order_type":`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	mockSvc.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_ProcessProductionOrder_StateViolationIs409(t *testing.T) {
	mockSvc := new(MockOrderService)
	router := newOrderRouter(mockSvc)

	orderID := uuid.Must(uuid.NewV4())
	mockSvc.On("ProcessProductionOrder", mock.Anything, orderID).
		Return(order.ErrStateViolation).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/process-production-order", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderHandler_GetOrder_Missing(t *testing.T) {
	mockSvc := new(MockOrderService)
	router := newOrderRouter(mockSvc)

	orderID := uuid.Must(uuid.NewV4())
	mockSvc.On("GetOrderByID", mock.Anything, orderID).
		Return(nil, order.ErrOrderNotFound).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderHandler_UpdateStatus_DirectPaidIs409(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	router := newOrderRouter(order.NewService(mockRepo, 30*time.Minute))

	orderID := uuid.Must(uuid.NewV4())
	body, err := json.Marshal(map[string]string{"status": order.StatusPaid})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+orderID.String(), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	mockRepo.AssertNotCalled(t, "UpdateStatus")
}

func newAuthedOrderRouter(svc order.Service, tm *auth.TokenManager) http.Handler {
	h := order.NewHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(tm.Authenticate)
		h.RegisterRoutes(r)
	})
	return r
}

func bearerToken(t *testing.T, tm *auth.TokenManager, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := tm.Issue(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestOrderHandler_GetOrder_CustomerCannotReadOthers(t *testing.T) {
	mockSvc := new(MockOrderService)
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newAuthedOrderRouter(mockSvc, tm)

	ownerID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	mockSvc.On("GetOrderByID", mock.Anything, orderID).
		Return(&order.Order{ID: orderID, UserID: &ownerID}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t, tm, uuid.Must(uuid.NewV4()), auth.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderHandler_GetOrder_OwnerAndStaffAllowed(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name   string
		userID uuid.UUID
		role   string
	}{
		{name: "owner", userID: ownerID, role: auth.RoleCustomer},
		{name: "manager", userID: uuid.Must(uuid.NewV4()), role: auth.RoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockOrderService)
			tm := auth.NewTokenManager("test-secret", time.Hour)
			router := newAuthedOrderRouter(mockSvc, tm)

			orderID := uuid.Must(uuid.NewV4())
			mockSvc.On("GetOrderByID", mock.Anything, orderID).
				Return(&order.Order{ID: orderID, UserID: &ownerID}, nil).
				Once()

			req := httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID.String(), nil)
			req.Header.Set("Authorization", bearerToken(t, tm, tt.userID, tt.role))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestOrderHandler_CancelOrder_CustomerCannotCancelOthers(t *testing.T) {
	mockSvc := new(MockOrderService)
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newAuthedOrderRouter(mockSvc, tm)

	ownerID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	mockSvc.On("GetOrderByID", mock.Anything, orderID).
		Return(&order.Order{ID: orderID, UserID: &ownerID}, nil).
		Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/"+orderID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t, tm, uuid.Must(uuid.NewV4()), auth.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	mockSvc.AssertNotCalled(t, "CancelOrder")
}

func TestOrderHandler_CancelOrder_OwnerAllowed(t *testing.T) {
	mockSvc := new(MockOrderService)
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newAuthedOrderRouter(mockSvc, tm)

	ownerID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	mockSvc.On("GetOrderByID", mock.Anything, orderID).
		Return(&order.Order{ID: orderID, UserID: &ownerID}, nil).
		Once()
	mockSvc.On("CancelOrder", mock.Anything, orderID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/"+orderID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t, tm, ownerID, auth.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockSvc.AssertExpectations(t)
}
