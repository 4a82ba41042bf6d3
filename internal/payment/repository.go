package payment

import (
	"context"
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
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStateConflict = errors.New("order is not in a payable state")
	ErrAlreadyConfirmed   = errors.New("payment already confirmed")
)

const (
	orderStatusPending        = "PENDING"
	orderStatusPaymentPending = "PAYMENT_PENDING"
	orderStatusPaid           = "PAID"
)

type Repository interface {
	GetOrderTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, string, error)
	CreatePayment(ctx context.Context, p *Payment) (uuid.UUID, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Payment, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// GetOrderTotal returns the order's stored total and current status.
func (r *postgresRepository) GetOrderTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, string, error) {
	var total decimal.Decimal
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT total_amount, status FROM orders WHERE id = $1`, orderID,
	).Scan(&total, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, "", ErrOrderNotFound
		}
		return decimal.Zero, "", fmt.Errorf("repository: failed to select order %s: %w", orderID, err)
	}

	return total, status, nil
}

// CreatePayment inserts the pending payment and moves the order to
// PAYMENT_PENDING in one transaction. The order row is locked and its status
// re-checked so a racing payment attempt loses cleanly.
func (r *postgresRepository) CreatePayment(ctx context.Context, p *Payment) (paymentID uuid.UUID, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate payment ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", p.OrderID).Msg("Failed to rollback transaction")
			}
		}
	}()

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrOrderNotFound
		}
		return uuid.Nil, fmt.Errorf("repository: failed to lock order %s: %w", p.OrderID, err)
	}
	if status != orderStatusPending {
		err = fmt.Errorf("%w: order is %s", ErrOrderStateConflict, status)
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, provider_intent_id, amount, status, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, p.OrderID, p.ProviderIntentID, p.Amount, StatusPending, p.Method, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert payment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		orderStatusPaymentPending, now, p.OrderID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	p.ID = id
	p.Status = StatusPending
	p.CreatedAt = now
	return id, nil
}

// ConfirmPayment marks the payment succeeded and the order paid in one
// transaction. Confirming a payment that is not pending fails; that is the
// idempotency guard.
func (r *postgresRepository) ConfirmPayment(ctx context.Context, id uuid.UUID) (confirmed *Payment, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("payment_id", id).Msg("Failed to rollback transaction")
			}
		}
	}()

	var p Payment
	err = tx.QueryRow(ctx, `
		SELECT id, order_id, provider_intent_id, amount, status, method, created_at
		FROM payments WHERE id = $1 FOR UPDATE
	`, id).Scan(&p.ID, &p.OrderID, &p.ProviderIntentID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to lock payment %s: %w", id, err)
	}

	if p.Status != StatusPending {
		err = ErrAlreadyConfirmed
		return nil, err
	}

	var orderStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID).Scan(&orderStatus)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to lock order %s: %w", p.OrderID, err)
	}
	if orderStatus != orderStatusPaymentPending {
		err = fmt.Errorf("%w: order is %s", ErrOrderStateConflict, orderStatus)
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, StatusSucceeded, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update payment status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		orderStatusPaid, now, p.OrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	p.Status = StatusSucceeded
	return &p, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `
		SELECT id, order_id, provider_intent_id, amount, status, method, created_at
		FROM payments WHERE id = $1
	`, id).Scan(&p.ID, &p.OrderID, &p.ProviderIntentID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to select payment %s: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, provider_intent_id, amount, status, method, created_at
		FROM payments
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.ProviderIntentID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating payments: %w", err)
	}

	return payments, nil
}
