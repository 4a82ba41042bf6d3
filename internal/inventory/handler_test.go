package inventory_test

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

	"restomanage/internal/inventory"
)

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CreateItem(ctx context.Context, item *inventory.Item) (*inventory.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryService) GetItemByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context) ([]inventory.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Item), args.Error(1)
}

func (m *MockInventoryService) UpdateItem(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInventoryService) CreatePurchase(ctx context.Context, p *inventory.Purchase) (*inventory.Purchase, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Purchase), args.Error(1)
}

func (m *MockInventoryService) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*inventory.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Purchase), args.Error(1)
}

func (m *MockInventoryService) ListPurchases(ctx context.Context) ([]inventory.Purchase, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Purchase), args.Error(1)
}

func (m *MockInventoryService) ListPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.Purchase, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Purchase), args.Error(1)
}

func (m *MockInventoryService) UpdatePurchase(ctx context.Context, p *inventory.Purchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockInventoryService) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInventoryService) GetItemStock(ctx context.Context, itemID uuid.UUID) (*inventory.ItemStock, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ItemStock), args.Error(1)
}

func newPurchaseRouter(svc inventory.Service) *chi.Mux {
	r := chi.NewRouter()
	h := inventory.NewHandler(svc)
	r.Route("/purchases", h.RegisterPurchaseRoutes)
	return r
}

func TestPurchaseHandler_Create_Success(t *testing.T) {
	mockService := new(MockInventoryService)
	router := newPurchaseRouter(mockService)

	purchaseID := uuid.Must(uuid.NewV4())
	mockService.On("CreatePurchase", mock.Anything, mock.AnythingOfType("*inventory.Purchase")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*inventory.Purchase).ID = purchaseID
		}).
		Return(&inventory.Purchase{ID: purchaseID}, nil).
		Once()

	body, err := json.Marshal(map[string]interface{}{
		"item_id":            uuid.Must(uuid.NewV4()),
		"purchase_date":      time.Now().UTC().Format(time.RFC3339),
		"purchased_quantity": 100,
		"wasted_quantity":    10,
		"useful_quantity":    80,
		"buying_price":       250.5,
		"supplier":           "Acme Foods",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/purchases/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, purchaseID.String(), resp["purchase_id"])
	mockService.AssertExpectations(t)
}

func TestPurchaseHandler_Create_InvalidQuantities(t *testing.T) {
	mockService := new(MockInventoryService)
	router := newPurchaseRouter(mockService)

	mockService.On("CreatePurchase", mock.Anything, mock.AnythingOfType("*inventory.Purchase")).
		Return(nil, inventory.ErrInvalidQuantities).
		Once()

	body, err := json.Marshal(map[string]interface{}{
		"item_id":            uuid.Must(uuid.NewV4()),
		"purchase_date":      time.Now().UTC().Format(time.RFC3339),
		"purchased_quantity": 50,
		"wasted_quantity":    30,
		"useful_quantity":    30,
		"supplier":           "Acme Foods",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/purchases/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseHandler_Create_MalformedJSON(t *testing.T) {
	mockService := new(MockInventoryService)
	router := newPurchaseRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/purchases/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "CreatePurchase")
}

func TestPurchaseHandler_Delete_NotFound(t *testing.T) {
	mockService := new(MockInventoryService)
	router := newPurchaseRouter(mockService)

	missingID := uuid.Must(uuid.NewV4())
	mockService.On("DeletePurchase", mock.Anything, missingID).
		Return(inventory.ErrPurchaseNotFound).
		Once()

	req := httptest.NewRequest(http.MethodDelete, "/purchases/"+missingID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code, "deleting a missing purchase must be 404, not 500")
}

func TestPurchaseHandler_GetByItem_UnknownItem(t *testing.T) {
	mockService := new(MockInventoryService)
	router := newPurchaseRouter(mockService)

	itemID := uuid.Must(uuid.NewV4())
	mockService.On("ListPurchasesByItem", mock.Anything, itemID).
		Return(nil, inventory.ErrItemNotFound).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/purchases/item/"+itemID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
