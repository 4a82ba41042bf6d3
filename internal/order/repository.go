package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrStateViolation = errors.New("order state violation")
	ErrLineConfig     = errors.New("order line configuration error")
	ErrShortage       = errors.New("insufficient stock")
)

// LineConfigError collects per-line configuration problems found while
// resolving an order request. Nothing is persisted when it is returned.
type LineConfigError struct {
	Errors []LineError
}

func (e *LineConfigError) Error() string {
	return fmt.Sprintf("order has %d misconfigured lines", len(e.Errors))
}

func (e *LineConfigError) Unwrap() error { return ErrLineConfig }

// ShortageError lists the stock that blocks an order. Nothing is persisted
// when it is returned.
type ShortageError struct {
	Shortages []Shortage
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("stock short for %d positions", len(e.Shortages))
}

func (e *ShortageError) Unwrap() error { return ErrShortage }

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) error
	ProcessProductionOrder(ctx context.Context, id uuid.UUID) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create persists the order together with its stock reservation in one
// transaction. Line configuration problems and shortages are detected while
// the relevant stock rows are locked, so a successful commit means the
// reservation really held.
func (r *postgresRepository) Create(ctx context.Context, o *Order) (err error) {
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

	lineErrors := make([]LineError, 0)
	total := decimal.Zero

	for i := range o.Items {
		item := &o.Items[i]
		scanErr := tx.QueryRow(ctx,
			`SELECT name, selling_price FROM products WHERE id = $1`, item.ProductID,
		).Scan(&item.ProductName, &item.PricePerUnit)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				lineErrors = append(lineErrors, LineError{ProductID: item.ProductID, Message: "product not found"})
				continue
			}
			err = fmt.Errorf("repository: failed to select product %s: %w", item.ProductID, scanErr)
			return err
		}
		total = total.Add(item.PricePerUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	type rawNeed struct {
		name      string
		need      decimal.Decimal
		available decimal.Decimal
	}
	rawNeeds := make(map[uuid.UUID]*rawNeed)
	var directNeeds map[uuid.UUID]int
	shortages := make([]Shortage, 0)

	switch o.OrderType {
	case TypeProductionOrder:
		for i := range o.Items {
			item := &o.Items[i]
			if item.ProductName == "" {
				continue // already reported as a missing product
			}

			rows, qErr := tx.Query(ctx, `
				SELECT r.item_id, i.name, r.quantity_per_unit
				FROM recipes r
				JOIN inventory_items i ON i.id = r.item_id
				WHERE r.product_id = $1
			`, item.ProductID)
			if qErr != nil {
				err = fmt.Errorf("repository: failed to query recipe for product %s: %w", item.ProductID, qErr)
				return err
			}

			type recipeLine struct {
				itemID   uuid.UUID
				itemName string
				perUnit  decimal.Decimal
			}
			lines := make([]recipeLine, 0)
			for rows.Next() {
				var rl recipeLine
				if err = rows.Scan(&rl.itemID, &rl.itemName, &rl.perUnit); err != nil {
					rows.Close()
					return fmt.Errorf("repository: failed to scan recipe line: %w", err)
				}
				lines = append(lines, rl)
			}
			rows.Close()
			if err = rows.Err(); err != nil {
				return fmt.Errorf("repository: error iterating recipe lines: %w", err)
			}

			if len(lines) == 0 {
				lineErrors = append(lineErrors, LineError{ProductID: item.ProductID, Message: "product has no recipe configured"})
				continue
			}

			qty := decimal.NewFromInt(int64(item.Quantity))
			for _, rl := range lines {
				need, seen := rawNeeds[rl.itemID]
				if !seen {
					var available decimal.Decimal
					scanErr := tx.QueryRow(ctx,
						`SELECT quantity FROM inventory_stock WHERE item_id = $1 FOR UPDATE`, rl.itemID,
					).Scan(&available)
					if scanErr != nil {
						if errors.Is(scanErr, pgx.ErrNoRows) {
							lineErrors = append(lineErrors, LineError{
								ProductID: item.ProductID,
								Message:   fmt.Sprintf("inventory item %s has no stock record", rl.itemName),
							})
							continue
						}
						err = fmt.Errorf("repository: failed to lock stock for item %s: %w", rl.itemID, scanErr)
						return err
					}
					need = &rawNeed{name: rl.itemName, available: available}
					rawNeeds[rl.itemID] = need
				}
				need.need = need.need.Add(rl.perUnit.Mul(qty))
			}
		}

		if len(lineErrors) > 0 {
			err = &LineConfigError{Errors: lineErrors}
			return err
		}

		for itemID, need := range rawNeeds {
			if need.available.LessThan(need.need) {
				id := itemID
				shortages = append(shortages, Shortage{
					ItemID:    &id,
					Name:      need.name,
					Required:  need.need,
					Available: need.available,
				})
			}
		}

	case TypeDirectSale:
		if len(lineErrors) > 0 {
			err = &LineConfigError{Errors: lineErrors}
			return err
		}

		directNeeds = mergeLineQuantities(o.Items)
		productNames := make(map[uuid.UUID]string, len(directNeeds))
		for i := range o.Items {
			productNames[o.Items[i].ProductID] = o.Items[i].ProductName
		}

		for productID, needQty := range directNeeds {
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
				id := productID
				shortages = append(shortages, Shortage{
					ProductID: &id,
					Name:      productNames[productID],
					Required:  decimal.NewFromInt(int64(needQty)),
					Available: decimal.NewFromInt(int64(available)),
				})
			}
		}

	default:
		err = fmt.Errorf("repository: unknown order type %q", o.OrderType)
		return err
	}

	if len(shortages) > 0 {
		err = &ShortageError{Shortages: shortages}
		return err
	}

	orderID, genErr := uuid.NewV4()
	if genErr != nil {
		err = fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		return err
	}

	addressJSON, mErr := json.Marshal(o.ShippingAddress)
	if mErr != nil {
		err = fmt.Errorf("repository: failed to marshal shipping address: %w", mErr)
		return err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, order_type, status, total_amount, shipping_address,
		                    reserve_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, orderID, o.UserID, o.OrderType, StatusPending, total, addressJSON, o.ReserveExpiresAt, now)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = orderID

		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price_per_unit)
			 VALUES ($1, $2, $3, $4, $5)`,
			itemID, orderID, item.ProductID, item.Quantity, item.PricePerUnit,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item: %w", err)
		}
	}

	if o.OrderType == TypeProductionOrder {
		for itemID, need := range rawNeeds {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_reservations (order_id, item_id, quantity) VALUES ($1, $2, $3)`,
				orderID, itemID, need.need,
			)
			if err != nil {
				return fmt.Errorf("repository: failed to insert reservation: %w", err)
			}

			_, err = tx.Exec(ctx,
				`UPDATE inventory_stock SET quantity = quantity - $1 WHERE item_id = $2`,
				need.need, itemID,
			)
			if err != nil {
				return fmt.Errorf("repository: failed to reserve stock for item %s: %w", itemID, err)
			}
		}
	} else {
		for productID, needQty := range directNeeds {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_reservations (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
				orderID, productID, decimal.NewFromInt(int64(needQty)),
			)
			if err != nil {
				return fmt.Errorf("repository: failed to insert reservation: %w", err)
			}

			_, err = tx.Exec(ctx, `
				UPDATE product_stock
				SET quantity_available = quantity_available - $1,
				    quantity_reserved = quantity_reserved + $1
				WHERE product_id = $2
			`, needQty, productID)
			if err != nil {
				return fmt.Errorf("repository: failed to reserve product stock %s: %w", productID, err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	o.ID = orderID
	o.Status = StatusPending
	o.TotalAmount = total
	o.CreatedAt = now
	o.UpdatedAt = now
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

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT id, user_id, order_type, status, total_amount, shipping_address,
		       reserve_expires_at, created_at, updated_at
		FROM orders WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_per_unit, p.name
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for %s: %w", id, err)
	}
	defer rows.Close()

	o.Items = make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PricePerUnit, &item.ProductName); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return o, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var addressJSON []byte
	err := row.Scan(&o.ID, &o.UserID, &o.OrderType, &o.Status, &o.TotalAmount, &addressJSON,
		&o.ReserveExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
		}
	}
	return &o, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT id, user_id, order_type, status, total_amount, shipping_address,
		       reserve_expires_at, created_at, updated_at
		FROM orders ORDER BY created_at DESC
	`)
}

func (r *postgresRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT id, user_id, order_type, status, total_amount, shipping_address,
		       reserve_expires_at, created_at, updated_at
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
	`, from, to)
}

func (r *postgresRepository) listOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves the order through the state machine while its row is
// locked. Cancelling returns the reservation; completing a direct sale
// consumes it. Production orders are completed only by processing, and PAID
// is reached only through payment confirmation.
func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	var orderType, currentStatus string
	err = tx.QueryRow(ctx, `SELECT order_type, status FROM orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&orderType, &currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to lock order %s: %w", id, err)
	}

	if !isTransitionAllowed(currentStatus, newStatus) {
		err = fmt.Errorf("%w: cannot move order from %s to %s", ErrStateViolation, currentStatus, newStatus)
		return err
	}
	if newStatus == StatusPaid {
		err = fmt.Errorf("%w: orders are marked paid by payment confirmation", ErrStateViolation)
		return err
	}
	if newStatus == StatusCompleted && orderType == TypeProductionOrder {
		err = fmt.Errorf("%w: production orders are completed by processing", ErrStateViolation)
		return err
	}

	switch newStatus {
	case StatusCancelled:
		if err = releaseReservations(ctx, tx, id); err != nil {
			return err
		}
	case StatusCompleted:
		if err = consumeProductReservations(ctx, tx, id); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		newStatus, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

// releaseReservations puts every reserved quantity of the order back into
// stock and removes the reservation rows. Runs inside the caller's
// transaction.
func releaseReservations(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	rows, err := tx.Query(ctx,
		`SELECT item_id, product_id, quantity FROM order_reservations WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to query reservations for order %s: %w", orderID, err)
	}

	reservations := make([]Reservation, 0)
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ItemID, &res.ProductID, &res.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("repository: failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating reservations: %w", err)
	}

	for _, res := range reservations {
		if res.ItemID != nil {
			_, err = tx.Exec(ctx,
				`UPDATE inventory_stock SET quantity = quantity + $1 WHERE item_id = $2`,
				res.Quantity, *res.ItemID,
			)
		} else if res.ProductID != nil {
			_, err = tx.Exec(ctx, `
				UPDATE product_stock
				SET quantity_available = quantity_available + $1,
				    quantity_reserved = quantity_reserved - $1
				WHERE product_id = $2
			`, res.Quantity, *res.ProductID)
		}
		if err != nil {
			return fmt.Errorf("repository: failed to return reservation for order %s: %w", orderID, err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM order_reservations WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("repository: failed to delete reservations for order %s: %w", orderID, err)
	}

	return nil
}

// consumeProductReservations drops the reserved counters of a completed
// direct sale. The goods left the building; they do not return to available.
func consumeProductReservations(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE product_stock ps
		SET quantity_reserved = ps.quantity_reserved - res.quantity
		FROM order_reservations res
		WHERE res.order_id = $1 AND res.product_id = ps.product_id
	`, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to consume reservations for order %s: %w", orderID, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM order_reservations WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("repository: failed to delete reservations for order %s: %w", orderID, err)
	}

	return nil
}

// ProcessProductionOrder turns a paid production order's reservation into an
// inventory release, a production log and finished-goods stock, then marks
// the order completed. One transaction; the raw stock was already deducted
// when the reservation was taken.
func (r *postgresRepository) ProcessProductionOrder(ctx context.Context, id uuid.UUID) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	var orderType, status string
	err = tx.QueryRow(ctx, `SELECT order_type, status FROM orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&orderType, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to lock order %s: %w", id, err)
	}

	if orderType != TypeProductionOrder {
		err = fmt.Errorf("%w: order is not a production order", ErrStateViolation)
		return err
	}
	if status != StatusPaid {
		err = fmt.Errorf("%w: order must be %s to process, currently %s", ErrStateViolation, StatusPaid, status)
		return err
	}

	itemRows, qErr := tx.Query(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, id)
	if qErr != nil {
		err = fmt.Errorf("repository: failed to query order items for %s: %w", id, qErr)
		return err
	}

	type orderLine struct {
		productID uuid.UUID
		quantity  int
	}
	lines := make([]orderLine, 0)
	for itemRows.Next() {
		var l orderLine
		if err = itemRows.Scan(&l.productID, &l.quantity); err != nil {
			itemRows.Close()
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	itemRows.Close()
	if err = itemRows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order items: %w", err)
	}

	now := time.Now().UTC()
	for _, line := range lines {
		releaseID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate release ID: %w", genErr)
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_releases (id, product_id, order_id, units, notes, released_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, releaseID, line.productID, id, line.quantity, "production order fulfillment", now)
		if err != nil {
			return fmt.Errorf("repository: failed to insert inventory release: %w", err)
		}

		// Release lines restate what the reservation already took out of
		// inventory_stock at order-create time.
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_release_items (release_id, item_id, quantity)
			SELECT $1, r.item_id, r.quantity_per_unit * $3
			FROM recipes r
			WHERE r.product_id = $2
		`, releaseID, line.productID, line.quantity)
		if err != nil {
			return fmt.Errorf("repository: failed to insert release items: %w", err)
		}

		logID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate production log ID: %w", genErr)
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO production_logs (id, product_id, inventory_release_id, planned_quantity,
			                             actual_quantity, notes, logged_at)
			VALUES ($1, $2, $3, $4, $4, $5, $6)
		`, logID, line.productID, releaseID, line.quantity, "production order fulfillment", now)
		if err != nil {
			return fmt.Errorf("repository: failed to insert production log: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO product_stock (product_id, quantity_available, quantity_reserved)
			VALUES ($1, $2, 0)
			ON CONFLICT (product_id) DO UPDATE
			SET quantity_available = product_stock.quantity_available + $2
		`, line.productID, line.quantity)
		if err != nil {
			return fmt.Errorf("repository: failed to update product stock: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM order_reservations WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("repository: failed to delete reservations for order %s: %w", id, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		StatusCompleted, now, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

// SweepExpired cancels pending orders whose reservation TTL passed and
// returns their reserved stock. Returns the number of orders cancelled.
func (r *postgresRepository) SweepExpired(ctx context.Context, now time.Time) (count int, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		}
	}()

	rows, qErr := tx.Query(ctx, `
		SELECT id FROM orders
		WHERE status = $1 AND reserve_expires_at IS NOT NULL AND reserve_expires_at < $2
		FOR UPDATE
	`, StatusPending, now)
	if qErr != nil {
		err = fmt.Errorf("repository: failed to query expired orders: %w", qErr)
		return 0, err
	}

	expired := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("repository: failed to scan expired order: %w", err)
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("repository: error iterating expired orders: %w", err)
	}

	for _, id := range expired {
		if err = releaseReservations(ctx, tx, id); err != nil {
			return 0, err
		}
		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
			StatusCancelled, now, id,
		)
		if err != nil {
			return 0, fmt.Errorf("repository: failed to cancel expired order %s: %w", id, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return len(expired), nil
}
