package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrAmountMismatch = errors.New("payment amount does not match order total")

type Service interface {
	CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, clientAmount *decimal.Decimal, method string) (*Payment, string, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPaymentsByDateRange(ctx context.Context, from, to time.Time) ([]Payment, error)
}

type service struct {
	repo     Repository
	provider Provider
}

func NewService(repo Repository, provider Provider) Service {
	return &service{repo: repo, provider: provider}
}

// CreatePaymentIntent charges the order's stored total. A client-sent amount
// is accepted only when it matches; the server figure always wins.
func (s *service) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, clientAmount *decimal.Decimal, method string) (*Payment, string, error) {
	total, status, err := s.repo.GetOrderTotal(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, "", ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order for payment")
		return nil, "", fmt.Errorf("service: failed to fetch order for payment: %w", err)
	}
	if status != orderStatusPending {
		return nil, "", fmt.Errorf("%w: order is %s", ErrOrderStateConflict, status)
	}
	if clientAmount != nil && !clientAmount.Equal(total) {
		return nil, "", fmt.Errorf("%w: sent %s, order total is %s", ErrAmountMismatch, clientAmount, total)
	}

	intent, err := s.provider.CreateIntent(ctx, orderID, total)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: payment provider rejected intent")
		return nil, "", fmt.Errorf("service: failed to create payment intent: %w", err)
	}

	if method == "" {
		method = "card"
	}
	p := &Payment{
		OrderID:          orderID,
		ProviderIntentID: intent.ProviderIntentID,
		Amount:           total,
		Method:           method,
	}

	if _, err := s.repo.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderStateConflict) {
			return nil, "", err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to persist payment")
		return nil, "", fmt.Errorf("service: failed to persist payment: %w", err)
	}

	log.Info().
		Stringer("payment_id", p.ID).
		Stringer("order_id", orderID).
		Str("amount", total.String()).
		Msg("service: payment intent created")
	return p, intent.ClientSecret, nil
}

func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.ConfirmPayment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) || errors.Is(err, ErrAlreadyConfirmed) || errors.Is(err, ErrOrderStateConflict) {
			return nil, err
		}
		log.Error().Err(err).Stringer("payment_id", id).Msg("service: failed to confirm payment")
		return nil, fmt.Errorf("service: failed to confirm payment: %w", err)
	}

	log.Info().Stringer("payment_id", id).Stringer("order_id", p.OrderID).Msg("service: payment confirmed")
	return p, nil
}

func (s *service) GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		log.Error().Err(err).Stringer("payment_id", id).Msg("service: failed to fetch payment")
		return nil, fmt.Errorf("service: failed to fetch payment: %w", err)
	}

	return p, nil
}

func (s *service) ListPaymentsByDateRange(ctx context.Context, from, to time.Time) ([]Payment, error) {
	payments, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list payments by date")
		return nil, fmt.Errorf("service: failed to list payments by date: %w", err)
	}

	return payments, nil
}
