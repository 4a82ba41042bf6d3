package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"restomanage/internal/order"
)

func TestSweeper_SweepsUntilCancelled(t *testing.T) {
	mockRepo := new(MockOrderRepository)

	swept := make(chan struct{}, 1)
	mockRepo.On("SweepExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return(2, nil)

	sweeper := order.NewSweeper(mockRepo, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}

	mockRepo.AssertCalled(t, "SweepExpired", mock.Anything, mock.Anything)
}

func TestSweeper_KeepsRunningAfterError(t *testing.T) {
	mockRepo := new(MockOrderRepository)

	calls := make(chan struct{}, 4)
	mockRepo.On("SweepExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}).
		Return(0, errors.New("connection reset"))

	sweeper := order.NewSweeper(mockRepo, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sweeper.Run(ctx)

	require.GreaterOrEqual(t, len(calls), 2, "sweeper should survive sweep errors")
}
