package product_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/product"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *product.Product) (uuid.UUID, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) SetRecipe(ctx context.Context, productID uuid.UUID, lines []product.RecipeLine) error {
	return m.Called(ctx, productID, lines).Error(0)
}

func (m *MockProductRepository) GetRecipe(ctx context.Context, productID uuid.UUID) ([]product.RecipeLine, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.RecipeLine), args.Error(1)
}

func (m *MockProductRepository) GetStock(ctx context.Context, productID uuid.UUID) (*product.Stock, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Stock), args.Error(1)
}

func TestProductService_SetRecipe_Validation(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())
	itemID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		lines   []product.RecipeLine
		wantErr bool
	}{
		{
			name:    "empty_recipe",
			lines:   nil,
			wantErr: true,
		},
		{
			name: "zero_quantity_per_unit",
			lines: []product.RecipeLine{
				{ItemID: itemID, QuantityPerUnit: decimal.Zero},
			},
			wantErr: true,
		},
		{
			name: "duplicate_item",
			lines: []product.RecipeLine{
				{ItemID: itemID, QuantityPerUnit: decimal.NewFromInt(1)},
				{ItemID: itemID, QuantityPerUnit: decimal.NewFromInt(2)},
			},
			wantErr: true,
		},
		{
			name: "valid_recipe",
			lines: []product.RecipeLine{
				{ItemID: itemID, QuantityPerUnit: decimal.RequireFromString("0.25")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			svc := product.NewService(mockRepo)

			if !tt.wantErr {
				mockRepo.On("SetRecipe", mock.Anything, productID, tt.lines).Return(nil).Once()
			}

			err := svc.SetRecipe(context.Background(), productID, tt.lines)

			if tt.wantErr {
				require.ErrorIs(t, err, product.ErrInvalidRecipe)
				mockRepo.AssertNotCalled(t, "SetRecipe")
				return
			}
			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetStock_MissingRowIsZero(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := product.NewService(mockRepo)

	productID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetStock", mock.Anything, productID).
		Return(&product.Stock{ProductID: productID}, nil).
		Once()

	stock, err := svc.GetStock(context.Background(), productID)

	require.NoError(t, err)
	require.Equal(t, 0, stock.QuantityAvailable)
	require.Equal(t, 0, stock.QuantityReserved)
}

func TestProductService_CreateProduct_NegativePrice(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := product.NewService(mockRepo)

	_, err := svc.CreateProduct(context.Background(), &product.Product{
		Name:         "Croissant",
		SellingPrice: decimal.NewFromInt(-3),
	})

	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create")
}
