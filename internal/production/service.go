package production

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidQuantity = errors.New("invalid production quantity")

type Service interface {
	CreateRelease(ctx context.Context, productID uuid.UUID, units int, notes string) (*Release, error)
	GetReleaseByID(ctx context.Context, id uuid.UUID) (*Release, error)
	ListReleases(ctx context.Context) ([]Release, error)
	ListReleasesByProduct(ctx context.Context, productID uuid.UUID) ([]Release, error)

	CreateLog(ctx context.Context, l *Log) (*Log, error)
	GetLogByID(ctx context.Context, id uuid.UUID) (*Log, error)
	ListLogs(ctx context.Context) ([]Log, error)
	ListLogsByProduct(ctx context.Context, productID uuid.UUID) ([]Log, error)
	ListLogsByRelease(ctx context.Context, releaseID uuid.UUID) ([]Log, error)

	GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateRelease(ctx context.Context, productID uuid.UUID, units int, notes string) (*Release, error) {
	if units <= 0 {
		return nil, fmt.Errorf("%w: units must be positive", ErrInvalidQuantity)
	}

	release, err := s.repo.CreateRelease(ctx, productID, units, nil, notes)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrNoRecipe) || errors.Is(err, ErrInsufficientInventory) {
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to create inventory release")
		return nil, fmt.Errorf("service: failed to create inventory release: %w", err)
	}

	log.Info().
		Stringer("release_id", release.ID).
		Stringer("product_id", productID).
		Int("units", units).
		Msg("service: inventory released for production")
	return release, nil
}

func (s *service) GetReleaseByID(ctx context.Context, id uuid.UUID) (*Release, error) {
	release, err := s.repo.GetReleaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReleaseNotFound) {
			return nil, ErrReleaseNotFound
		}
		log.Error().Err(err).Stringer("release_id", id).Msg("service: failed to fetch inventory release")
		return nil, fmt.Errorf("service: failed to fetch inventory release: %w", err)
	}

	return release, nil
}

func (s *service) ListReleases(ctx context.Context) ([]Release, error) {
	releases, err := s.repo.ListReleases(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list inventory releases")
		return nil, fmt.Errorf("service: failed to list inventory releases: %w", err)
	}

	return releases, nil
}

func (s *service) ListReleasesByProduct(ctx context.Context, productID uuid.UUID) ([]Release, error) {
	releases, err := s.repo.ListReleasesByProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list inventory releases")
		return nil, fmt.Errorf("service: failed to list inventory releases: %w", err)
	}

	return releases, nil
}

// CreateLog enforces 0 < actual <= planned before touching storage. Losses
// during a run are normal; producing more than planned is not.
func (s *service) CreateLog(ctx context.Context, l *Log) (*Log, error) {
	if l.PlannedQuantity <= 0 {
		return nil, fmt.Errorf("%w: planned quantity must be positive", ErrInvalidQuantity)
	}
	if l.ActualQuantity <= 0 {
		return nil, fmt.Errorf("%w: actual quantity must be positive", ErrInvalidQuantity)
	}
	if l.ActualQuantity > l.PlannedQuantity {
		return nil, fmt.Errorf("%w: actual quantity %d exceeds planned quantity %d",
			ErrInvalidQuantity, l.ActualQuantity, l.PlannedQuantity)
	}

	if _, err := s.repo.CreateLog(ctx, l); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrReleaseNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", l.ProductID).Msg("service: failed to create production log")
		return nil, fmt.Errorf("service: failed to create production log: %w", err)
	}

	log.Info().
		Stringer("log_id", l.ID).
		Stringer("product_id", l.ProductID).
		Int("planned", l.PlannedQuantity).
		Int("actual", l.ActualQuantity).
		Msg("service: production logged")
	return l, nil
}

func (s *service) GetLogByID(ctx context.Context, id uuid.UUID) (*Log, error) {
	l, err := s.repo.GetLogByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLogNotFound) {
			return nil, ErrLogNotFound
		}
		log.Error().Err(err).Stringer("log_id", id).Msg("service: failed to fetch production log")
		return nil, fmt.Errorf("service: failed to fetch production log: %w", err)
	}

	return l, nil
}

func (s *service) ListLogs(ctx context.Context) ([]Log, error) {
	logs, err := s.repo.ListLogs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list production logs")
		return nil, fmt.Errorf("service: failed to list production logs: %w", err)
	}

	return logs, nil
}

func (s *service) ListLogsByProduct(ctx context.Context, productID uuid.UUID) ([]Log, error) {
	logs, err := s.repo.ListLogsByProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list production logs")
		return nil, fmt.Errorf("service: failed to list production logs: %w", err)
	}

	return logs, nil
}

func (s *service) ListLogsByRelease(ctx context.Context, releaseID uuid.UUID) ([]Log, error) {
	logs, err := s.repo.ListLogsByRelease(ctx, releaseID)
	if err != nil {
		log.Error().Err(err).Stringer("release_id", releaseID).Msg("service: failed to list production logs")
		return nil, fmt.Errorf("service: failed to list production logs: %w", err)
	}

	return logs, nil
}

func (s *service) GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error) {
	stock, err := s.repo.GetProductStock(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to fetch product stock")
		return nil, fmt.Errorf("service: failed to fetch product stock: %w", err)
	}

	return stock, nil
}
