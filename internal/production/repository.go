package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	ErrProductNotFound       = errors.New("product not found")
	ErrReleaseNotFound       = errors.New("inventory release not found")
	ErrLogNotFound           = errors.New("production log not found")
	ErrNoRecipe              = errors.New("product has no recipe configured")
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// InsufficientInventoryError lists the raw materials that block a release.
type InsufficientInventoryError struct {
	Shortages []Shortage
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (need %s, have %s)", s.ItemName, s.Required, s.Available))
	}
	return "insufficient inventory: " + strings.Join(parts, ", ")
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

type Repository interface {
	CreateRelease(ctx context.Context, productID uuid.UUID, units int, orderID *uuid.UUID, notes string) (*Release, error)
	GetReleaseByID(ctx context.Context, id uuid.UUID) (*Release, error)
	ListReleases(ctx context.Context) ([]Release, error)
	ListReleasesByProduct(ctx context.Context, productID uuid.UUID) ([]Release, error)

	CreateLog(ctx context.Context, l *Log) (uuid.UUID, error)
	GetLogByID(ctx context.Context, id uuid.UUID) (*Log, error)
	ListLogs(ctx context.Context) ([]Log, error)
	ListLogsByProduct(ctx context.Context, productID uuid.UUID) ([]Log, error)
	ListLogsByRelease(ctx context.Context, releaseID uuid.UUID) ([]Log, error)

	GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// CreateRelease resolves the product's recipe, locks the stock rows of every
// required material, verifies sufficiency and writes the release plus the
// stock decrements as one transaction.
func (r *postgresRepository) CreateRelease(ctx context.Context, productID uuid.UUID, units int, orderID *uuid.UUID, notes string) (release *Release, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
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
		return nil, fmt.Errorf("repository: failed to check product %s: %w", productID, err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	type requirement struct {
		itemID   uuid.UUID
		itemName string
		need     decimal.Decimal
	}

	recipeQuery := `
		SELECT r.item_id, i.name, r.quantity_per_unit
		FROM recipes r
		JOIN inventory_items i ON i.id = r.item_id
		WHERE r.product_id = $1
	`
	rows, qErr := tx.Query(ctx, recipeQuery, productID)
	if qErr != nil {
		err = fmt.Errorf("repository: failed to query recipe for product %s: %w", productID, qErr)
		return nil, err
	}

	requirements := make([]requirement, 0)
	unitsDec := decimal.NewFromInt(int64(units))
	for rows.Next() {
		var req requirement
		var perUnit decimal.Decimal
		if err = rows.Scan(&req.itemID, &req.itemName, &perUnit); err != nil {
			rows.Close()
			return nil, fmt.Errorf("repository: failed to scan recipe line: %w", err)
		}
		req.need = perUnit.Mul(unitsDec)
		requirements = append(requirements, req)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating recipe lines: %w", err)
	}

	if len(requirements) == 0 {
		return nil, ErrNoRecipe
	}

	shortages := make([]Shortage, 0)
	for _, req := range requirements {
		var available decimal.Decimal
		scanErr := tx.QueryRow(ctx,
			`SELECT quantity FROM inventory_stock WHERE item_id = $1 FOR UPDATE`, req.itemID,
		).Scan(&available)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				available = decimal.Zero
			} else {
				err = fmt.Errorf("repository: failed to lock stock for item %s: %w", req.itemID, scanErr)
				return nil, err
			}
		}
		if available.LessThan(req.need) {
			shortages = append(shortages, Shortage{
				ItemID:    req.itemID,
				ItemName:  req.itemName,
				Required:  req.need,
				Available: available,
			})
		}
	}
	if len(shortages) > 0 {
		err = &InsufficientInventoryError{Shortages: shortages}
		return nil, err
	}

	releaseID, genErr := uuid.NewV4()
	if genErr != nil {
		err = fmt.Errorf("repository: failed to generate release ID: %w", genErr)
		return nil, err
	}

	releasedAt := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO inventory_releases (id, product_id, order_id, units, notes, released_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		releaseID, productID, orderID, units, notes, releasedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert inventory release: %w", err)
	}

	items := make([]ReleaseItem, 0, len(requirements))
	for _, req := range requirements {
		_, err = tx.Exec(ctx,
			`INSERT INTO inventory_release_items (release_id, item_id, quantity) VALUES ($1, $2, $3)`,
			releaseID, req.itemID, req.need,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert release item: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE inventory_stock SET quantity = quantity - $1 WHERE item_id = $2`,
			req.need, req.itemID,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to decrement stock for item %s: %w", req.itemID, err)
		}

		items = append(items, ReleaseItem{
			ReleaseID: releaseID,
			ItemID:    req.itemID,
			Quantity:  req.need,
			ItemName:  req.itemName,
		})
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return &Release{
		ID:         releaseID,
		ProductID:  productID,
		OrderID:    orderID,
		Units:      units,
		Notes:      notes,
		ReleasedAt: releasedAt,
		Items:      items,
	}, nil
}

func (r *postgresRepository) GetReleaseByID(ctx context.Context, id uuid.UUID) (*Release, error) {
	var release Release
	err := r.db.QueryRow(ctx,
		`SELECT id, product_id, order_id, units, notes, released_at FROM inventory_releases WHERE id = $1`, id,
	).Scan(&release.ID, &release.ProductID, &release.OrderID, &release.Units, &release.Notes, &release.ReleasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReleaseNotFound
		}
		return nil, fmt.Errorf("repository: failed to select inventory release %s: %w", id, err)
	}

	itemsQuery := `
		SELECT ri.release_id, ri.item_id, ri.quantity, i.name
		FROM inventory_release_items ri
		JOIN inventory_items i ON i.id = ri.item_id
		WHERE ri.release_id = $1
	`
	rows, err := r.db.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query release items for %s: %w", id, err)
	}
	defer rows.Close()

	release.Items = make([]ReleaseItem, 0)
	for rows.Next() {
		var item ReleaseItem
		if err := rows.Scan(&item.ReleaseID, &item.ItemID, &item.Quantity, &item.ItemName); err != nil {
			return nil, fmt.Errorf("repository: failed to scan release item: %w", err)
		}
		release.Items = append(release.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating release items: %w", err)
	}

	return &release, nil
}

func (r *postgresRepository) ListReleases(ctx context.Context) ([]Release, error) {
	return r.listReleases(ctx, `SELECT id, product_id, order_id, units, notes, released_at FROM inventory_releases ORDER BY released_at DESC`)
}

func (r *postgresRepository) ListReleasesByProduct(ctx context.Context, productID uuid.UUID) ([]Release, error) {
	return r.listReleases(ctx,
		`SELECT id, product_id, order_id, units, notes, released_at FROM inventory_releases WHERE product_id = $1 ORDER BY released_at DESC`,
		productID,
	)
}

func (r *postgresRepository) listReleases(ctx context.Context, query string, args ...interface{}) ([]Release, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query inventory releases: %w", err)
	}
	defer rows.Close()

	releases := make([]Release, 0)
	for rows.Next() {
		var release Release
		if err := rows.Scan(&release.ID, &release.ProductID, &release.OrderID, &release.Units, &release.Notes, &release.ReleasedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan inventory release: %w", err)
		}
		releases = append(releases, release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating inventory releases: %w", err)
	}

	return releases, nil
}

// CreateLog inserts the production event and adds its actual quantity to the
// product's finished-goods stock in one transaction.
func (r *postgresRepository) CreateLog(ctx context.Context, l *Log) (logID uuid.UUID, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate production log ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("log_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	loggedAt := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO production_logs (id, product_id, inventory_release_id, planned_quantity, actual_quantity, notes, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, l.ProductID, l.InventoryReleaseID, l.PlannedQuantity, l.ActualQuantity, l.Notes, loggedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, "release") {
				return uuid.Nil, ErrReleaseNotFound
			}
			return uuid.Nil, ErrProductNotFound
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert production log: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO product_stock (product_id, quantity_available, quantity_reserved)
		 VALUES ($1, $2, 0)
		 ON CONFLICT (product_id) DO UPDATE SET quantity_available = product_stock.quantity_available + $2`,
		l.ProductID, l.ActualQuantity,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to update product stock: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	l.ID = id
	l.LoggedAt = loggedAt
	return id, nil
}

const logSelect = `
	SELECT l.id, l.product_id, l.inventory_release_id, l.planned_quantity, l.actual_quantity,
	       l.notes, l.logged_at, p.name
	FROM production_logs l
	JOIN products p ON p.id = l.product_id
`

func scanLog(row pgx.Row, l *Log) error {
	return row.Scan(
		&l.ID, &l.ProductID, &l.InventoryReleaseID, &l.PlannedQuantity, &l.ActualQuantity,
		&l.Notes, &l.LoggedAt, &l.ProductName,
	)
}

func (r *postgresRepository) GetLogByID(ctx context.Context, id uuid.UUID) (*Log, error) {
	var l Log
	err := scanLog(r.db.QueryRow(ctx, logSelect+` WHERE l.id = $1`, id), &l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("repository: failed to select production log %s: %w", id, err)
	}

	return &l, nil
}

func (r *postgresRepository) ListLogs(ctx context.Context) ([]Log, error) {
	return r.listLogs(ctx, logSelect+` ORDER BY l.logged_at DESC`)
}

func (r *postgresRepository) ListLogsByProduct(ctx context.Context, productID uuid.UUID) ([]Log, error) {
	return r.listLogs(ctx, logSelect+` WHERE l.product_id = $1 ORDER BY l.logged_at DESC`, productID)
}

func (r *postgresRepository) ListLogsByRelease(ctx context.Context, releaseID uuid.UUID) ([]Log, error) {
	return r.listLogs(ctx, logSelect+` WHERE l.inventory_release_id = $1 ORDER BY l.logged_at DESC`, releaseID)
}

func (r *postgresRepository) listLogs(ctx context.Context, query string, args ...interface{}) ([]Log, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query production logs: %w", err)
	}
	defer rows.Close()

	logs := make([]Log, 0)
	for rows.Next() {
		var l Log
		if err := scanLog(rows, &l); err != nil {
			return nil, fmt.Errorf("repository: failed to scan production log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating production logs: %w", err)
	}

	return logs, nil
}

func (r *postgresRepository) GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error) {
	var stock ProductStock
	err := r.db.QueryRow(ctx,
		`SELECT product_id, quantity_available, quantity_reserved FROM product_stock WHERE product_id = $1`,
		productID,
	).Scan(&stock.ProductID, &stock.QuantityAvailable, &stock.QuantityReserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ProductStock{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("repository: failed to select product stock %s: %w", productID, err)
	}

	return &stock, nil
}
