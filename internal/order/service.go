package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidOrder = errors.New("invalid order")

var validStatuses = map[string]bool{
	StatusPending:        true,
	StatusPaymentPending: true,
	StatusPaid:           true,
	StatusCompleted:      true,
	StatusCancelled:      true,
}

type Service interface {
	CreateOrder(ctx context.Context, userID *uuid.UUID, orderType string, address ShippingAddress, lines []LineInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error
	CancelOrder(ctx context.Context, id uuid.UUID) error
	ProcessProductionOrder(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo           Repository
	reservationTTL time.Duration
}

func NewService(repo Repository, reservationTTL time.Duration) Service {
	return &service{repo: repo, reservationTTL: reservationTTL}
}

func (s *service) CreateOrder(ctx context.Context, userID *uuid.UUID, orderType string, address ShippingAddress, lines []LineInput) (*Order, error) {
	if orderType != TypeDirectSale && orderType != TypeProductionOrder {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, orderType)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one line", ErrInvalidOrder)
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidOrder)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
		}
	}

	expiresAt := time.Now().UTC().Add(s.reservationTTL)
	o := &Order{
		UserID:           userID,
		OrderType:        orderType,
		ShippingAddress:  address,
		ReserveExpiresAt: &expiresAt,
		Items:            make([]Item, 0, len(lines)),
	}
	for _, line := range lines {
		o.Items = append(o.Items, Item{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrLineConfig) || errors.Is(err, ErrShortage) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_type", orderType).
		Str("total_amount", o.TotalAmount.String()).
		Msg("service: order created with reservation")
	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: date range end must be after start", ErrInvalidOrder)
	}

	orders, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders by date")
		return nil, fmt.Errorf("service: failed to list orders by date: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, status)
	}
	if status == StatusPaid {
		return fmt.Errorf("%w: orders are marked paid by payment confirmation", ErrStateViolation)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrStateViolation) {
			return err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", id).Str("status", status).Msg("service: order status updated")
	return nil
}

func (s *service) CancelOrder(ctx context.Context, id uuid.UUID) error {
	return s.UpdateOrderStatus(ctx, id, StatusCancelled)
}

func (s *service) ProcessProductionOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.ProcessProductionOrder(ctx, id); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrStateViolation) {
			return err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to process production order")
		return fmt.Errorf("service: failed to process production order: %w", err)
	}

	log.Info().Stringer("order_id", id).Msg("service: production order processed")
	return nil
}
