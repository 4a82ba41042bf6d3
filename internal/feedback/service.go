package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotOwner      = errors.New("feedback belongs to another user")
)

type Service interface {
	CreateFeedback(ctx context.Context, f *Feedback) (*Feedback, error)
	GetFeedbackByID(ctx context.Context, id uuid.UUID) (*Feedback, error)
	ListFeedbackByProduct(ctx context.Context, productID uuid.UUID) ([]Feedback, error)
	UpdateFeedback(ctx context.Context, requesterID, id uuid.UUID, rating int, comment string) (*Feedback, error)
	DeleteFeedback(ctx context.Context, requesterID, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateFeedback(ctx context.Context, f *Feedback) (*Feedback, error) {
	if f.Rating < 1 || f.Rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create feedback")
		return nil, fmt.Errorf("service: failed to create feedback: %w", err)
	}

	log.Info().
		Stringer("feedback_id", f.ID).
		Stringer("product_id", f.ProductID).
		Int("rating", f.Rating).
		Msg("service: feedback created")
	return f, nil
}

func (s *service) GetFeedbackByID(ctx context.Context, id uuid.UUID) (*Feedback, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, ErrFeedbackNotFound
		}
		log.Error().Err(err).Stringer("feedback_id", id).Msg("service: failed to fetch feedback")
		return nil, fmt.Errorf("service: failed to fetch feedback: %w", err)
	}

	return f, nil
}

func (s *service) ListFeedbackByProduct(ctx context.Context, productID uuid.UUID) ([]Feedback, error) {
	feedbacks, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list feedback")
		return nil, fmt.Errorf("service: failed to list feedback: %w", err)
	}

	return feedbacks, nil
}

// UpdateFeedback lets only the author modify their entry.
func (s *service) UpdateFeedback(ctx context.Context, requesterID, id uuid.UUID, rating int, comment string) (*Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, ErrFeedbackNotFound
		}
		log.Error().Err(err).Stringer("feedback_id", id).Msg("service: failed to fetch feedback for update")
		return nil, fmt.Errorf("service: failed to fetch feedback for update: %w", err)
	}
	if f.UserID != requesterID {
		return nil, ErrNotOwner
	}

	f.Rating = rating
	f.Comment = comment
	if err := s.repo.Update(ctx, f); err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, ErrFeedbackNotFound
		}
		log.Error().Err(err).Stringer("feedback_id", id).Msg("service: failed to update feedback")
		return nil, fmt.Errorf("service: failed to update feedback: %w", err)
	}

	return f, nil
}

func (s *service) DeleteFeedback(ctx context.Context, requesterID, id uuid.UUID) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return ErrFeedbackNotFound
		}
		log.Error().Err(err).Stringer("feedback_id", id).Msg("service: failed to fetch feedback for delete")
		return fmt.Errorf("service: failed to fetch feedback for delete: %w", err)
	}
	if f.UserID != requesterID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return ErrFeedbackNotFound
		}
		log.Error().Err(err).Stringer("feedback_id", id).Msg("service: failed to delete feedback")
		return fmt.Errorf("service: failed to delete feedback: %w", err)
	}

	log.Info().Stringer("feedback_id", id).Msg("service: feedback deleted")
	return nil
}
