package production_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/production"
)

type MockProductionRepository struct {
	mock.Mock
}

func (m *MockProductionRepository) CreateRelease(ctx context.Context, productID uuid.UUID, units int, orderID *uuid.UUID, notes string) (*production.Release, error) {
	args := m.Called(ctx, productID, units, orderID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.Release), args.Error(1)
}

func (m *MockProductionRepository) GetReleaseByID(ctx context.Context, id uuid.UUID) (*production.Release, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.Release), args.Error(1)
}

func (m *MockProductionRepository) ListReleases(ctx context.Context) ([]production.Release, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]production.Release), args.Error(1)
}

func (m *MockProductionRepository) ListReleasesByProduct(ctx context.Context, productID uuid.UUID) ([]production.Release, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]production.Release), args.Error(1)
}

func (m *MockProductionRepository) CreateLog(ctx context.Context, l *production.Log) (uuid.UUID, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockProductionRepository) GetLogByID(ctx context.Context, id uuid.UUID) (*production.Log, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.Log), args.Error(1)
}

func (m *MockProductionRepository) ListLogs(ctx context.Context) ([]production.Log, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]production.Log), args.Error(1)
}

func (m *MockProductionRepository) ListLogsByProduct(ctx context.Context, productID uuid.UUID) ([]production.Log, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]production.Log), args.Error(1)
}

func (m *MockProductionRepository) ListLogsByRelease(ctx context.Context, releaseID uuid.UUID) ([]production.Log, error) {
	args := m.Called(ctx, releaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]production.Log), args.Error(1)
}

func (m *MockProductionRepository) GetProductStock(ctx context.Context, productID uuid.UUID) (*production.ProductStock, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProductStock), args.Error(1)
}

func TestProductionService_CreateLog_QuantityInvariants(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())
	releaseID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		planned int
		actual  int
		wantErr bool
	}{
		{
			name:    "actual_exceeds_planned",
			planned: 20,
			actual:  25,
			wantErr: true,
		},
		{
			name:    "actual_below_planned_is_loss",
			planned: 20,
			actual:  18,
		},
		{
			name:    "actual_equals_planned",
			planned: 20,
			actual:  20,
		},
		{
			name:    "zero_actual",
			planned: 20,
			actual:  0,
			wantErr: true,
		},
		{
			name:    "negative_planned",
			planned: -5,
			actual:  3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductionRepository)
			svc := production.NewService(mockRepo)

			l := &production.Log{
				ProductID:          productID,
				InventoryReleaseID: releaseID,
				PlannedQuantity:    tt.planned,
				ActualQuantity:     tt.actual,
			}

			if !tt.wantErr {
				mockRepo.On("CreateLog", mock.Anything, l).Return(uuid.Must(uuid.NewV4()), nil).Once()
			}

			_, err := svc.CreateLog(context.Background(), l)

			if tt.wantErr {
				require.ErrorIs(t, err, production.ErrInvalidQuantity)
				mockRepo.AssertNotCalled(t, "CreateLog")
				return
			}
			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductionService_CreateLog_MissingReferences(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
	}{
		{name: "missing_product", repoErr: production.ErrProductNotFound},
		{name: "missing_release", repoErr: production.ErrReleaseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductionRepository)
			svc := production.NewService(mockRepo)

			mockRepo.On("CreateLog", mock.Anything, mock.Anything).Return(uuid.Nil, tt.repoErr).Once()

			_, err := svc.CreateLog(context.Background(), &production.Log{
				ProductID:          uuid.Must(uuid.NewV4()),
				InventoryReleaseID: uuid.Must(uuid.NewV4()),
				PlannedQuantity:    10,
				ActualQuantity:     10,
			})

			require.ErrorIs(t, err, tt.repoErr)
		})
	}
}

func TestProductionService_CreateRelease_UnitsMustBePositive(t *testing.T) {
	mockRepo := new(MockProductionRepository)
	svc := production.NewService(mockRepo)

	_, err := svc.CreateRelease(context.Background(), uuid.Must(uuid.NewV4()), 0, "")

	require.ErrorIs(t, err, production.ErrInvalidQuantity)
	mockRepo.AssertNotCalled(t, "CreateRelease")
}

func TestProductionService_CreateRelease_PassesThroughShortage(t *testing.T) {
	mockRepo := new(MockProductionRepository)
	svc := production.NewService(mockRepo)

	productID := uuid.Must(uuid.NewV4())
	shortage := &production.InsufficientInventoryError{
		Shortages: []production.Shortage{{ItemName: "Flour"}},
	}
	mockRepo.On("CreateRelease", mock.Anything, productID, 5, (*uuid.UUID)(nil), "").
		Return(nil, shortage).
		Once()

	_, err := svc.CreateRelease(context.Background(), productID, 5, "")

	require.ErrorIs(t, err, production.ErrInsufficientInventory)

	var got *production.InsufficientInventoryError
	require.ErrorAs(t, err, &got)
	require.Len(t, got.Shortages, 1)
}

func TestProductionService_GetProductStock_MissingRowIsZero(t *testing.T) {
	mockRepo := new(MockProductionRepository)
	svc := production.NewService(mockRepo)

	productID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetProductStock", mock.Anything, productID).
		Return(&production.ProductStock{ProductID: productID}, nil).
		Once()

	stock, err := svc.GetProductStock(context.Background(), productID)

	require.NoError(t, err)
	require.Equal(t, 0, stock.QuantityAvailable)
	require.Equal(t, 0, stock.QuantityReserved)
}
