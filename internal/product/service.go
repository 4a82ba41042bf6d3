package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidRecipe = errors.New("invalid recipe")

type Service interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	SetRecipe(ctx context.Context, productID uuid.UUID, lines []RecipeLine) error
	GetRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error)

	GetStock(ctx context.Context, productID uuid.UUID) (*Stock, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" {
		return nil, errors.New("service: product name is required")
	}
	if p.SellingPrice.IsNegative() {
		return nil, errors.New("service: selling price must be non-negative")
	}
	if p.MinProductionAmount < 0 {
		return nil, errors.New("service: min production amount must be non-negative")
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	return p, nil
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) error {
	if p.SellingPrice.IsNegative() {
		return errors.New("service: selling price must be non-negative")
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}

	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	return nil
}

func (s *service) SetRecipe(ctx context.Context, productID uuid.UUID, lines []RecipeLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: recipe must contain at least one line", ErrInvalidRecipe)
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.ItemID == uuid.Nil {
			return fmt.Errorf("%w: item id is required", ErrInvalidRecipe)
		}
		if !line.QuantityPerUnit.IsPositive() {
			return fmt.Errorf("%w: quantity per unit must be positive", ErrInvalidRecipe)
		}
		if seen[line.ItemID] {
			return fmt.Errorf("%w: duplicate item %s", ErrInvalidRecipe, line.ItemID)
		}
		seen[line.ItemID] = true
	}

	if err := s.repo.SetRecipe(ctx, productID, lines); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrItemNotFound) {
			return err
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to set recipe")
		return fmt.Errorf("service: failed to set recipe: %w", err)
	}

	log.Info().Stringer("product_id", productID).Int("lines", len(lines)).Msg("service: recipe replaced")
	return nil
}

func (s *service) GetRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error) {
	lines, err := s.repo.GetRecipe(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to fetch recipe")
		return nil, fmt.Errorf("service: failed to fetch recipe: %w", err)
	}

	return lines, nil
}

func (s *service) GetStock(ctx context.Context, productID uuid.UUID) (*Stock, error) {
	stock, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to fetch product stock")
		return nil, fmt.Errorf("service: failed to fetch product stock: %w", err)
	}

	return stock, nil
}
