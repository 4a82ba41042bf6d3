package sale

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestMergeLineQuantities_RepeatedProductLines(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())
	otherID := uuid.Must(uuid.NewV4())

	needs := mergeLineQuantities([]Item{
		{ProductID: productID, Quantity: 3},
		{ProductID: productID, Quantity: 3},
		{ProductID: otherID, Quantity: 2},
	})

	require.Equal(t, map[uuid.UUID]int{productID: 6, otherID: 2}, needs)
}
