package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusPending, StatusPaymentPending, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaid, false},
		{StatusPending, StatusCompleted, false},
		{StatusPaymentPending, StatusPaid, true},
		{StatusPaymentPending, StatusCancelled, true},
		{StatusPaymentPending, StatusCompleted, false},
		{StatusPaid, StatusCompleted, true},
		{StatusPaid, StatusCancelled, false},
		{StatusPaid, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			require.Equal(t, tt.allowed, isTransitionAllowed(tt.from, tt.to))
		})
	}
}
