package order

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
		{ProductID: otherID, Quantity: 1},
	})

	require.Equal(t, map[uuid.UUID]int{productID: 6, otherID: 1}, needs)
}

func TestMergeLineQuantities_SingleLinePerProduct(t *testing.T) {
	productID := uuid.Must(uuid.NewV4())

	needs := mergeLineQuantities([]Item{{ProductID: productID, Quantity: 4}})

	require.Equal(t, map[uuid.UUID]int{productID: 4}, needs)
}
