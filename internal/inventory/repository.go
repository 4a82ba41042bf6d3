package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound     = errors.New("inventory item not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

type Repository interface {
	CreateItem(ctx context.Context, item *Item) (uuid.UUID, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	CreatePurchase(ctx context.Context, p *Purchase) (uuid.UUID, error)
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	ListPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]Purchase, error)
	UpdatePurchase(ctx context.Context, p *Purchase) error
	DeletePurchase(ctx context.Context, id uuid.UUID) error

	GetItemStock(ctx context.Context, itemID uuid.UUID) (*ItemStock, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateItem(ctx context.Context, item *Item) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate item ID: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO inventory_items (id, name, brand, category, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query, id, item.Name, item.Brand, item.Category, item.Unit, now, now); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert inventory item: %w", err)
	}

	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `
		SELECT id, name, brand, category, unit, created_at, updated_at
		FROM inventory_items
		WHERE id = $1
	`
	var item Item
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Brand, &item.Category, &item.Unit, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select inventory item %s: %w", id, err)
	}

	return &item, nil
}

func (r *postgresRepository) ListItems(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, name, brand, category, unit, created_at, updated_at
		FROM inventory_items
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Brand, &item.Category, &item.Unit, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating inventory items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, item *Item) error {
	query := `
		UPDATE inventory_items
		SET name = $1, brand = $2, category = $3, unit = $4, updated_at = $5
		WHERE id = $6
	`
	cmdTag, err := r.db.Exec(ctx, query, item.Name, item.Brand, item.Category, item.Unit, time.Now().UTC(), item.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update inventory item %s: %w", item.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete inventory item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

// CreatePurchase inserts the goods receipt and adds its useful quantity to
// the item's on-hand stock in one transaction.
func (r *postgresRepository) CreatePurchase(ctx context.Context, p *Purchase) (purchaseID uuid.UUID, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate purchase ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("purchase_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	now := time.Now().UTC()
	query := `
		INSERT INTO purchases (id, item_id, purchase_date, purchased_quantity, wasted_quantity,
		                       useful_quantity, buying_price, supplier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		id, p.ItemID, p.PurchaseDate, p.PurchasedQuantity, p.WastedQuantity,
		p.UsefulQuantity, p.BuyingPrice, p.Supplier, now, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return uuid.Nil, ErrItemNotFound
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert purchase: %w", err)
	}

	if err = adjustItemStock(ctx, tx, p.ItemID, p.UsefulQuantity); err != nil {
		return uuid.Nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return id, nil
}

const purchaseSelect = `
	SELECT p.id, p.item_id, p.purchase_date, p.purchased_quantity, p.wasted_quantity,
	       p.useful_quantity, p.buying_price, p.supplier, p.created_at, p.updated_at,
	       i.name, i.brand, i.category
	FROM purchases p
	JOIN inventory_items i ON i.id = p.item_id
`

func scanPurchase(row pgx.Row, p *Purchase) error {
	return row.Scan(
		&p.ID, &p.ItemID, &p.PurchaseDate, &p.PurchasedQuantity, &p.WastedQuantity,
		&p.UsefulQuantity, &p.BuyingPrice, &p.Supplier, &p.CreatedAt, &p.UpdatedAt,
		&p.ItemName, &p.ItemBrand, &p.ItemCategory,
	)
}

func (r *postgresRepository) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	var p Purchase
	err := scanPurchase(r.db.QueryRow(ctx, purchaseSelect+` WHERE p.id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("repository: failed to select purchase %s: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) ListPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, purchaseSelect+` ORDER BY p.purchase_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query purchases: %w", err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

func (r *postgresRepository) ListPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, purchaseSelect+` WHERE p.item_id = $1 ORDER BY p.purchase_date DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query purchases for item %s: %w", itemID, err)
	}
	defer rows.Close()

	return collectPurchases(rows)
}

func collectPurchases(rows pgx.Rows) ([]Purchase, error) {
	purchases := make([]Purchase, 0)
	for rows.Next() {
		var p Purchase
		if err := scanPurchase(rows, &p); err != nil {
			return nil, fmt.Errorf("repository: failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating purchases: %w", err)
	}

	return purchases, nil
}

// UpdatePurchase rewrites the purchase and shifts the item's stock by the
// change in useful quantity, in one transaction.
func (r *postgresRepository) UpdatePurchase(ctx context.Context, p *Purchase) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("purchase_id", p.ID).Msg("Failed to rollback transaction")
			}
		}
	}()

	var previousUseful decimal.Decimal
	var itemID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT item_id, useful_quantity FROM purchases WHERE id = $1 FOR UPDATE`, p.ID).
		Scan(&itemID, &previousUseful)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("repository: failed to lock purchase %s: %w", p.ID, err)
	}

	query := `
		UPDATE purchases
		SET purchase_date = $1, purchased_quantity = $2, wasted_quantity = $3,
		    useful_quantity = $4, buying_price = $5, supplier = $6, updated_at = $7
		WHERE id = $8
	`
	_, err = tx.Exec(ctx, query,
		p.PurchaseDate, p.PurchasedQuantity, p.WastedQuantity,
		p.UsefulQuantity, p.BuyingPrice, p.Supplier, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update purchase %s: %w", p.ID, err)
	}

	if err = adjustItemStock(ctx, tx, itemID, p.UsefulQuantity.Sub(previousUseful)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

// DeletePurchase removes the goods receipt and subtracts its useful quantity
// from the item's stock, in one transaction.
func (r *postgresRepository) DeletePurchase(ctx context.Context, id uuid.UUID) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("purchase_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	var useful decimal.Decimal
	var itemID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT item_id, useful_quantity FROM purchases WHERE id = $1 FOR UPDATE`, id).
		Scan(&itemID, &useful)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("repository: failed to lock purchase %s: %w", id, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("repository: failed to delete purchase %s: %w", id, err)
	}

	if err = adjustItemStock(ctx, tx, itemID, useful.Neg()); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetItemStock(ctx context.Context, itemID uuid.UUID) (*ItemStock, error) {
	var stock ItemStock
	err := r.db.QueryRow(ctx, `SELECT item_id, quantity FROM inventory_stock WHERE item_id = $1`, itemID).
		Scan(&stock.ItemID, &stock.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No receipts yet: report zero on hand rather than absence.
			return &ItemStock{ItemID: itemID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("repository: failed to select stock for item %s: %w", itemID, err)
	}

	return &stock, nil
}

// adjustItemStock applies a delta to an item's on-hand quantity inside the
// caller's transaction, creating the stock row on first receipt.
func adjustItemStock(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, delta decimal.Decimal) error {
	query := `
		INSERT INTO inventory_stock (item_id, quantity)
		VALUES ($1, $2)
		ON CONFLICT (item_id) DO UPDATE SET quantity = inventory_stock.quantity + $2
	`
	if _, err := tx.Exec(ctx, query, itemID, delta); err != nil {
		return fmt.Errorf("repository: failed to adjust stock for item %s: %w", itemID, err)
	}

	return nil
}
