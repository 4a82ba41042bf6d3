package feedback_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/feedback"
)

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) (uuid.UUID, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockFeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*feedback.Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]feedback.Feedback, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]feedback.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) Update(ctx context.Context, f *feedback.Feedback) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFeedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestFeedbackService_CreateFeedback_RatingBounds(t *testing.T) {
	tests := []struct {
		name    string
		rating  int
		wantErr bool
	}{
		{name: "rating_zero", rating: 0, wantErr: true},
		{name: "rating_six", rating: 6, wantErr: true},
		{name: "rating_negative", rating: -1, wantErr: true},
		{name: "rating_one", rating: 1},
		{name: "rating_five", rating: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockFeedbackRepository)
			svc := feedback.NewService(mockRepo)

			f := &feedback.Feedback{
				UserID:    uuid.Must(uuid.NewV4()),
				ProductID: uuid.Must(uuid.NewV4()),
				Rating:    tt.rating,
			}

			if !tt.wantErr {
				mockRepo.On("Create", mock.Anything, f).Return(uuid.Must(uuid.NewV4()), nil).Once()
			}

			_, err := svc.CreateFeedback(context.Background(), f)

			if tt.wantErr {
				require.ErrorIs(t, err, feedback.ErrInvalidRating)
				mockRepo.AssertNotCalled(t, "Create")
				return
			}
			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestFeedbackService_UpdateFeedback_OnlyOwner(t *testing.T) {
	mockRepo := new(MockFeedbackRepository)
	svc := feedback.NewService(mockRepo)

	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())
	feedbackID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByID", mock.Anything, feedbackID).
		Return(&feedback.Feedback{ID: feedbackID, UserID: owner, Rating: 4}, nil)

	_, err := svc.UpdateFeedback(context.Background(), stranger, feedbackID, 2, "meh")

	require.ErrorIs(t, err, feedback.ErrNotOwner)
	mockRepo.AssertNotCalled(t, "Update")
}

func TestFeedbackService_UpdateFeedback_OwnerSucceeds(t *testing.T) {
	mockRepo := new(MockFeedbackRepository)
	svc := feedback.NewService(mockRepo)

	owner := uuid.Must(uuid.NewV4())
	feedbackID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByID", mock.Anything, feedbackID).
		Return(&feedback.Feedback{ID: feedbackID, UserID: owner, Rating: 4}, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(f *feedback.Feedback) bool {
		return f.ID == feedbackID && f.Rating == 5 && f.Comment == "great"
	})).Return(nil).Once()

	f, err := svc.UpdateFeedback(context.Background(), owner, feedbackID, 5, "great")

	require.NoError(t, err)
	require.Equal(t, 5, f.Rating)
	mockRepo.AssertExpectations(t)
}

func TestFeedbackService_DeleteFeedback_OnlyOwner(t *testing.T) {
	mockRepo := new(MockFeedbackRepository)
	svc := feedback.NewService(mockRepo)

	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())
	feedbackID := uuid.Must(uuid.NewV4())

	mockRepo.On("GetByID", mock.Anything, feedbackID).
		Return(&feedback.Feedback{ID: feedbackID, UserID: owner}, nil)

	err := svc.DeleteFeedback(context.Background(), stranger, feedbackID)

	require.ErrorIs(t, err, feedback.ErrNotOwner)
	mockRepo.AssertNotCalled(t, "Delete")
}

func TestFeedbackService_DeleteFeedback_Missing(t *testing.T) {
	mockRepo := new(MockFeedbackRepository)
	svc := feedback.NewService(mockRepo)

	feedbackID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, feedbackID).
		Return(nil, feedback.ErrFeedbackNotFound)

	err := svc.DeleteFeedback(context.Background(), uuid.Must(uuid.NewV4()), feedbackID)

	require.ErrorIs(t, err, feedback.ErrFeedbackNotFound)
}
