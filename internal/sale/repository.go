package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrSaleNotFound      = errors.New("sale not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient finished stock")
)

// InsufficientStockError lists the products that block a sale.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (need %d, have %d)", s.Name, s.Required, s.Available))
	}
	return "insufficient finished stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	List(ctx context.Context) ([]Sale, error)
	ReportByDateRange(ctx context.Context, from, to time.Time) ([]DailyReport, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create records the sale and decrements finished-goods stock in one
// transaction. Stock rows are locked while sufficiency is checked.
func (r *postgresRepository) Create(ctx context.Context, s *Sale) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		}
	}()

	total := decimal.Zero
	shortages := make([]Shortage, 0)

	for i := range s.Items {
		item := &s.Items[i]
		scanErr := tx.QueryRow(ctx,
			`SELECT name, selling_price FROM products WHERE id = $1`, item.ProductID,
		).Scan(&item.ProductName, &item.PricePerUnit)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				err = ErrProductNotFound
				return err
			}
			err = fmt.Errorf("repository: failed to select product %s: %w", item.ProductID, scanErr)
			return err
		}
		total = total.Add(item.PricePerUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	needs := mergeLineQuantities(s.Items)
	productNames := make(map[uuid.UUID]string, len(needs))
	for i := range s.Items {
		productNames[s.Items[i].ProductID] = s.Items[i].ProductName
	}

	for productID, needQty := range needs {
		var available int
		scanErr := tx.QueryRow(ctx,
			`SELECT quantity_available FROM product_stock WHERE product_id = $1 FOR UPDATE`, productID,
		).Scan(&available)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				available = 0
			} else {
				err = fmt.Errorf("repository: failed to lock product stock %s: %w", productID, scanErr)
				return err
			}
		}
		if available < needQty {
			shortages = append(shortages, Shortage{
				ProductID: productID,
				Name:      productNames[productID],
				Required:  needQty,
				Available: available,
			})
		}
	}

	if len(shortages) > 0 {
		err = &InsufficientStockError{Shortages: shortages}
		return err
	}

	saleID, genErr := uuid.NewV4()
	if genErr != nil {
		err = fmt.Errorf("repository: failed to generate sale ID: %w", genErr)
		return err
	}

	soldAt := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO sales (id, cashier_id, total_amount, sold_at) VALUES ($1, $2, $3, $4)`,
		saleID, s.CashierID, total, soldAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert sale: %w", err)
	}

	for i := range s.Items {
		item := &s.Items[i]
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate sale item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.SaleID = saleID

		_, err = tx.Exec(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, price_per_unit)
			 VALUES ($1, $2, $3, $4, $5)`,
			itemID, saleID, item.ProductID, item.Quantity, item.PricePerUnit,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert sale item: %w", err)
		}
	}

	for productID, needQty := range needs {
		_, err = tx.Exec(ctx,
			`UPDATE product_stock SET quantity_available = quantity_available - $1 WHERE product_id = $2`,
			needQty, productID,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement product stock %s: %w", productID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	s.ID = saleID
	s.TotalAmount = total
	s.SoldAt = soldAt
	return nil
}

// mergeLineQuantities sums requested quantities per product so repeated
// lines for the same product count against stock as one requirement.
func mergeLineQuantities(items []Item) map[uuid.UUID]int {
	needs := make(map[uuid.UUID]int, len(items))
	for i := range items {
		needs[items[i].ProductID] += items[i].Quantity
	}
	return needs
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Sale, error) {
	var s Sale
	err := r.db.QueryRow(ctx,
		`SELECT id, cashier_id, total_amount, sold_at FROM sales WHERE id = $1`, id,
	).Scan(&s.ID, &s.CashierID, &s.TotalAmount, &s.SoldAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("repository: failed to select sale %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, si.quantity, si.price_per_unit, p.name
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query sale items for %s: %w", id, err)
	}
	defer rows.Close()

	s.Items = make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.PricePerUnit, &item.ProductName); err != nil {
			return nil, fmt.Errorf("repository: failed to scan sale item: %w", err)
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating sale items: %w", err)
	}

	return &s, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Sale, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, cashier_id, total_amount, sold_at FROM sales ORDER BY sold_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.CashierID, &s.TotalAmount, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating sales: %w", err)
	}

	return sales, nil
}

func (r *postgresRepository) ReportByDateRange(ctx context.Context, from, to time.Time) ([]DailyReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', sold_at) AS day, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		GROUP BY day
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query sales report: %w", err)
	}
	defer rows.Close()

	report := make([]DailyReport, 0)
	for rows.Next() {
		var day DailyReport
		if err := rows.Scan(&day.Day, &day.Orders, &day.Revenue); err != nil {
			return nil, fmt.Errorf("repository: failed to scan sales report row: %w", err)
		}
		report = append(report, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating sales report: %w", err)
	}

	return report, nil
}
