package feedback

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
)

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrUserNotFound     = errors.New("user not found")
)

type Repository interface {
	Create(ctx context.Context, f *Feedback) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Feedback, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, f *Feedback) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate feedback ID: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `
		INSERT INTO feedback (id, user_id, product_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id, f.UserID, f.ProductID, f.Rating, f.Comment, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, "product") {
				return uuid.Nil, ErrProductNotFound
			}
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert feedback: %w", err)
	}

	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	var f Feedback
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, rating, comment, created_at, updated_at
		FROM feedback WHERE id = $1
	`, id).Scan(&f.ID, &f.UserID, &f.ProductID, &f.Rating, &f.Comment, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("repository: failed to select feedback %s: %w", id, err)
	}

	return &f, nil
}

func (r *postgresRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Feedback, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, product_id, rating, comment, created_at, updated_at
		FROM feedback
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query feedback: %w", err)
	}
	defer rows.Close()

	feedbacks := make([]Feedback, 0)
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.Rating, &f.Comment, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating feedback: %w", err)
	}

	return feedbacks, nil
}

func (r *postgresRepository) Update(ctx context.Context, f *Feedback) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE feedback SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4
	`, f.Rating, f.Comment, time.Now().UTC(), f.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update feedback %s: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedbackNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete feedback %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedbackNotFound
	}

	return nil
}
