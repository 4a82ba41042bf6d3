package sale_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/sale"
)

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.Sale), args.Error(1)
}

func (m *MockSaleRepository) List(ctx context.Context) ([]sale.Sale, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.Sale), args.Error(1)
}

func (m *MockSaleRepository) ReportByDateRange(ctx context.Context, from, to time.Time) ([]sale.DailyReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.DailyReport), args.Error(1)
}

func TestSaleService_CreateSale_Validation(t *testing.T) {
	cashierID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name      string
		cashierID uuid.UUID
		lines     []sale.LineInput
	}{
		{
			name:      "missing_cashier",
			cashierID: uuid.Nil,
			lines:     []sale.LineInput{{ProductID: productID, Quantity: 1}},
		},
		{
			name:      "no_lines",
			cashierID: cashierID,
			lines:     nil,
		},
		{
			name:      "zero_quantity",
			cashierID: cashierID,
			lines:     []sale.LineInput{{ProductID: productID, Quantity: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockSaleRepository)
			svc := sale.NewService(mockRepo)

			_, err := svc.CreateSale(context.Background(), tt.cashierID, tt.lines)

			require.ErrorIs(t, err, sale.ErrInvalidSale)
			mockRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestSaleService_CreateSale_PassesThroughShortage(t *testing.T) {
	mockRepo := new(MockSaleRepository)
	svc := sale.NewService(mockRepo)

	productID := uuid.Must(uuid.NewV4())
	repoErr := &sale.InsufficientStockError{
		Shortages: []sale.Shortage{{ProductID: productID, Name: "Croissant", Required: 4, Available: 1}},
	}
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(repoErr).Once()

	_, err := svc.CreateSale(context.Background(), uuid.Must(uuid.NewV4()),
		[]sale.LineInput{{ProductID: productID, Quantity: 4}})

	require.ErrorIs(t, err, sale.ErrInsufficientStock)

	var got *sale.InsufficientStockError
	require.ErrorAs(t, err, &got)
	require.Equal(t, 1, got.Shortages[0].Available)
}

func TestSaleService_ReportByDateRange_RejectsInvertedRange(t *testing.T) {
	mockRepo := new(MockSaleRepository)
	svc := sale.NewService(mockRepo)

	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.ReportByDateRange(context.Background(), from, from)

	require.ErrorIs(t, err, sale.ErrInvalidSale)
	mockRepo.AssertNotCalled(t, "ReportByDateRange")
}
