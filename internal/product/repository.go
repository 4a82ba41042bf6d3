package product

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
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("inventory item not found")
)

type Repository interface {
	Create(ctx context.Context, p *Product) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	SetRecipe(ctx context.Context, productID uuid.UUID, lines []RecipeLine) error
	GetRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error)

	GetStock(ctx context.Context, productID uuid.UUID) (*Stock, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate product ID: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO products (id, name, description, selling_price, min_production_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query, id, p.Name, p.Description, p.SellingPrice, p.MinProductionAmount, now, now); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, name, description, selling_price, min_production_amount, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.SellingPrice, &p.MinProductionAmount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, name, description, selling_price, min_production_amount, created_at, updated_at
		FROM products
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SellingPrice, &p.MinProductionAmount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, selling_price = $3, min_production_amount = $4, updated_at = $5
		WHERE id = $6
	`
	cmdTag, err := r.db.Exec(ctx, query, p.Name, p.Description, p.SellingPrice, p.MinProductionAmount, time.Now().UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

// SetRecipe replaces the product's recipe wholesale in one transaction.
func (r *postgresRepository) SetRecipe(ctx context.Context, productID uuid.UUID, lines []RecipeLine) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("product_id", productID).Msg("Failed to rollback transaction")
			}
		}
	}()

	var exists bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return fmt.Errorf("repository: failed to check product %s: %w", productID, err)
	}
	if !exists {
		return ErrProductNotFound
	}

	if _, err = tx.Exec(ctx, `DELETE FROM recipes WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("repository: failed to clear recipe for product %s: %w", productID, err)
	}

	for i := range lines {
		line := &lines[i]

		lineID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate recipe line ID: %w", genErr)
			return err
		}
		line.ID = lineID
		line.ProductID = productID

		_, err = tx.Exec(ctx,
			`INSERT INTO recipes (id, product_id, item_id, quantity_per_unit) VALUES ($1, $2, $3, $4)`,
			line.ID, productID, line.ItemID, line.QuantityPerUnit,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				err = ErrItemNotFound
				return err
			}
			return fmt.Errorf("repository: failed to insert recipe line for product %s: %w", productID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("repository: failed to check product %s: %w", productID, err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	query := `
		SELECT r.id, r.product_id, r.item_id, r.quantity_per_unit, i.name, i.unit
		FROM recipes r
		JOIN inventory_items i ON i.id = r.item_id
		WHERE r.product_id = $1
		ORDER BY i.name
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query recipe for product %s: %w", productID, err)
	}
	defer rows.Close()

	lines := make([]RecipeLine, 0)
	for rows.Next() {
		var line RecipeLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ItemID, &line.QuantityPerUnit, &line.ItemName, &line.ItemUnit); err != nil {
			return nil, fmt.Errorf("repository: failed to scan recipe line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating recipe lines: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) GetStock(ctx context.Context, productID uuid.UUID) (*Stock, error) {
	var stock Stock
	err := r.db.QueryRow(ctx,
		`SELECT product_id, quantity_available, quantity_reserved FROM product_stock WHERE product_id = $1`,
		productID,
	).Scan(&stock.ProductID, &stock.QuantityAvailable, &stock.QuantityReserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Nothing produced yet: a zero record, not an error.
			return &Stock{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("repository: failed to select stock for product %s: %w", productID, err)
	}

	return &stock, nil
}
