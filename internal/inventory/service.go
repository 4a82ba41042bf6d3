package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidQuantities = errors.New("invalid purchase quantities")

type Service interface {
	CreateItem(ctx context.Context, item *Item) (*Item, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	CreatePurchase(ctx context.Context, p *Purchase) (*Purchase, error)
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	ListPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]Purchase, error)
	UpdatePurchase(ctx context.Context, p *Purchase) error
	DeletePurchase(ctx context.Context, id uuid.UUID) error

	GetItemStock(ctx context.Context, itemID uuid.UUID) (*ItemStock, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// validatePurchase enforces the goods-receipt invariant before any write:
// quantities non-negative and wasted + useful <= purchased.
func validatePurchase(p *Purchase) error {
	if p.PurchasedQuantity.IsNegative() || p.WastedQuantity.IsNegative() || p.UsefulQuantity.IsNegative() {
		return fmt.Errorf("%w: quantities must be non-negative", ErrInvalidQuantities)
	}
	if p.PurchasedQuantity.IsZero() {
		return fmt.Errorf("%w: purchased quantity must be greater than zero", ErrInvalidQuantities)
	}
	if p.WastedQuantity.Add(p.UsefulQuantity).GreaterThan(p.PurchasedQuantity) {
		return fmt.Errorf("%w: wasted + useful cannot exceed purchased", ErrInvalidQuantities)
	}
	if p.BuyingPrice.IsNegative() {
		return fmt.Errorf("%w: buying price must be non-negative", ErrInvalidQuantities)
	}
	return nil
}

func (s *service) CreateItem(ctx context.Context, item *Item) (*Item, error) {
	if item.Name == "" {
		return nil, errors.New("service: item name is required")
	}

	if _, err := s.repo.CreateItem(ctx, item); err != nil {
		log.Error().Err(err).Msg("service: failed to create inventory item")
		return nil, fmt.Errorf("service: failed to create inventory item: %w", err)
	}

	log.Info().Stringer("item_id", item.ID).Str("name", item.Name).Msg("service: inventory item created")
	return item, nil
}

func (s *service) GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch inventory item")
		return nil, fmt.Errorf("service: failed to fetch inventory item: %w", err)
	}

	return item, nil
}

func (s *service) ListItems(ctx context.Context) ([]Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list inventory items")
		return nil, fmt.Errorf("service: failed to list inventory items: %w", err)
	}

	return items, nil
}

func (s *service) UpdateItem(ctx context.Context, item *Item) error {
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", item.ID).Msg("service: failed to update inventory item")
		return fmt.Errorf("service: failed to update inventory item: %w", err)
	}

	return nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", id).Msg("service: failed to delete inventory item")
		return fmt.Errorf("service: failed to delete inventory item: %w", err)
	}

	return nil
}

func (s *service) CreatePurchase(ctx context.Context, p *Purchase) (*Purchase, error) {
	if err := validatePurchase(p); err != nil {
		log.Warn().Err(err).Stringer("item_id", p.ItemID).Msg("service: rejected invalid purchase")
		return nil, err
	}

	if _, err := s.repo.CreatePurchase(ctx, p); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error().Err(err).Msg("service: failed to create purchase")
		return nil, fmt.Errorf("service: failed to create purchase: %w", err)
	}

	log.Info().
		Stringer("purchase_id", p.ID).
		Stringer("item_id", p.ItemID).
		Str("useful_quantity", p.UsefulQuantity.String()).
		Msg("service: purchase created")

	return p, nil
}

func (s *service) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	p, err := s.repo.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			return nil, ErrPurchaseNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch purchase")
		return nil, fmt.Errorf("service: failed to fetch purchase: %w", err)
	}

	return p, nil
}

func (s *service) ListPurchases(ctx context.Context) ([]Purchase, error) {
	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list purchases")
		return nil, fmt.Errorf("service: failed to list purchases: %w", err)
	}

	return purchases, nil
}

func (s *service) ListPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]Purchase, error) {
	// The item must exist: distinguish "unknown item" from "no purchases yet".
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("service: failed to check inventory item: %w", err)
	}

	purchases, err := s.repo.ListPurchasesByItem(ctx, itemID)
	if err != nil {
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to list purchases by item")
		return nil, fmt.Errorf("service: failed to list purchases by item: %w", err)
	}

	return purchases, nil
}

func (s *service) UpdatePurchase(ctx context.Context, p *Purchase) error {
	if err := validatePurchase(p); err != nil {
		log.Warn().Err(err).Stringer("purchase_id", p.ID).Msg("service: rejected invalid purchase update")
		return err
	}

	if err := s.repo.UpdatePurchase(ctx, p); err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			return ErrPurchaseNotFound
		}
		log.Error().Err(err).Stringer("purchase_id", p.ID).Msg("service: failed to update purchase")
		return fmt.Errorf("service: failed to update purchase: %w", err)
	}

	return nil
}

func (s *service) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePurchase(ctx, id); err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			return ErrPurchaseNotFound
		}
		log.Error().Err(err).Stringer("purchase_id", id).Msg("service: failed to delete purchase")
		return fmt.Errorf("service: failed to delete purchase: %w", err)
	}

	return nil
}

func (s *service) GetItemStock(ctx context.Context, itemID uuid.UUID) (*ItemStock, error) {
	stock, err := s.repo.GetItemStock(ctx, itemID)
	if err != nil {
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to fetch item stock")
		return nil, fmt.Errorf("service: failed to fetch item stock: %w", err)
	}

	return stock, nil
}
