package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidSale = errors.New("invalid sale")

type Service interface {
	CreateSale(ctx context.Context, cashierID uuid.UUID, lines []LineInput) (*Sale, error)
	GetSaleByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context) ([]Sale, error)
	ReportByDateRange(ctx context.Context, from, to time.Time) ([]DailyReport, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateSale(ctx context.Context, cashierID uuid.UUID, lines []LineInput) (*Sale, error) {
	if cashierID == uuid.Nil {
		return nil, fmt.Errorf("%w: cashier is required", ErrInvalidSale)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: sale must contain at least one line", ErrInvalidSale)
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidSale)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidSale)
		}
	}

	sl := &Sale{
		CashierID: cashierID,
		Items:     make([]Item, 0, len(lines)),
	}
	for _, line := range lines {
		sl.Items = append(sl.Items, Item{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	if err := s.repo.Create(ctx, sl); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create sale")
		return nil, fmt.Errorf("service: failed to create sale: %w", err)
	}

	log.Info().
		Stringer("sale_id", sl.ID).
		Stringer("cashier_id", cashierID).
		Str("total_amount", sl.TotalAmount.String()).
		Msg("service: sale recorded")
	return sl, nil
}

func (s *service) GetSaleByID(ctx context.Context, id uuid.UUID) (*Sale, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			return nil, ErrSaleNotFound
		}
		log.Error().Err(err).Stringer("sale_id", id).Msg("service: failed to fetch sale")
		return nil, fmt.Errorf("service: failed to fetch sale: %w", err)
	}

	return sl, nil
}

func (s *service) ListSales(ctx context.Context) ([]Sale, error) {
	sales, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list sales")
		return nil, fmt.Errorf("service: failed to list sales: %w", err)
	}

	return sales, nil
}

func (s *service) ReportByDateRange(ctx context.Context, from, to time.Time) ([]DailyReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: date range end must be after start", ErrInvalidSale)
	}

	report, err := s.repo.ReportByDateRange(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to build sales report")
		return nil, fmt.Errorf("service: failed to build sales report: %w", err)
	}

	return report, nil
}
