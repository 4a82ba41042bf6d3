package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/payment"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetOrderTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, string, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(decimal.Decimal), args.String(1), args.Error(2)
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, p *payment.Payment) (uuid.UUID, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockPaymentRepository) ConfirmPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]payment.Payment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateIntent(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*payment.Intent, error) {
	args := m.Called(ctx, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func TestPaymentService_CreatePaymentIntent_UsesStoredTotal(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	mockProvider := new(MockProvider)
	svc := payment.NewService(mockRepo, mockProvider)

	orderID := uuid.Must(uuid.NewV4())
	total := decimal.RequireFromString("42.50")

	mockRepo.On("GetOrderTotal", mock.Anything, orderID).Return(total, "PENDING", nil).Once()
	mockProvider.On("CreateIntent", mock.Anything, orderID, total).
		Return(&payment.Intent{ProviderIntentID: "pi_test", ClientSecret: "pi_test_secret"}, nil).
		Once()
	mockRepo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *payment.Payment) bool {
		return p.OrderID == orderID && p.Amount.Equal(total) && p.ProviderIntentID == "pi_test"
	})).Return(uuid.Must(uuid.NewV4()), nil).Once()

	p, clientSecret, err := svc.CreatePaymentIntent(context.Background(), orderID, nil, "")

	require.NoError(t, err)
	require.Equal(t, "pi_test_secret", clientSecret)
	require.True(t, p.Amount.Equal(total))
	mockRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestPaymentService_CreatePaymentIntent_AmountMismatch(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	mockProvider := new(MockProvider)
	svc := payment.NewService(mockRepo, mockProvider)

	orderID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetOrderTotal", mock.Anything, orderID).
		Return(decimal.RequireFromString("42.50"), "PENDING", nil).
		Once()

	sent := decimal.RequireFromString("10.00")
	_, _, err := svc.CreatePaymentIntent(context.Background(), orderID, &sent, "card")

	require.ErrorIs(t, err, payment.ErrAmountMismatch)
	mockProvider.AssertNotCalled(t, "CreateIntent")
	mockRepo.AssertNotCalled(t, "CreatePayment")
}

func TestPaymentService_CreatePaymentIntent_OrderNotPending(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{name: "already_payment_pending", status: "PAYMENT_PENDING"},
		{name: "already_paid", status: "PAID"},
		{name: "cancelled", status: "CANCELLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPaymentRepository)
			mockProvider := new(MockProvider)
			svc := payment.NewService(mockRepo, mockProvider)

			orderID := uuid.Must(uuid.NewV4())
			mockRepo.On("GetOrderTotal", mock.Anything, orderID).
				Return(decimal.NewFromInt(10), tt.status, nil).
				Once()

			_, _, err := svc.CreatePaymentIntent(context.Background(), orderID, nil, "card")

			require.ErrorIs(t, err, payment.ErrOrderStateConflict)
			mockProvider.AssertNotCalled(t, "CreateIntent")
		})
	}
}

func TestPaymentService_CreatePaymentIntent_OrderMissing(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	mockProvider := new(MockProvider)
	svc := payment.NewService(mockRepo, mockProvider)

	orderID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetOrderTotal", mock.Anything, orderID).
		Return(decimal.Zero, "", payment.ErrOrderNotFound).
		Once()

	_, _, err := svc.CreatePaymentIntent(context.Background(), orderID, nil, "card")

	require.ErrorIs(t, err, payment.ErrOrderNotFound)
}

func TestPaymentService_ConfirmPayment_SecondConfirmConflicts(t *testing.T) {
	mockRepo := new(MockPaymentRepository)
	svc := payment.NewService(mockRepo, new(MockProvider))

	paymentID := uuid.Must(uuid.NewV4())
	confirmed := &payment.Payment{ID: paymentID, Status: payment.StatusSucceeded}

	mockRepo.On("ConfirmPayment", mock.Anything, paymentID).Return(confirmed, nil).Once()
	mockRepo.On("ConfirmPayment", mock.Anything, paymentID).Return(nil, payment.ErrAlreadyConfirmed).Once()

	first, err := svc.ConfirmPayment(context.Background(), paymentID)
	require.NoError(t, err)
	require.Equal(t, payment.StatusSucceeded, first.Status)

	_, err = svc.ConfirmPayment(context.Background(), paymentID)
	require.ErrorIs(t, err, payment.ErrAlreadyConfirmed)
}
