package production

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Release records raw inventory consumed for a production run. Creating one
// decrements inventory_stock in the same transaction.
type Release struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ProductID  uuid.UUID     `json:"product_id" db:"product_id"`
	OrderID    *uuid.UUID    `json:"order_id,omitempty" db:"order_id"`
	Units      int           `json:"units" db:"units"`
	Notes      string        `json:"notes" db:"notes"`
	ReleasedAt time.Time     `json:"released_at" db:"released_at"`
	Items      []ReleaseItem `json:"items" db:"-"`
}

// ReleaseItem is one raw material line of a release.
type ReleaseItem struct {
	ReleaseID uuid.UUID       `json:"release_id" db:"release_id"`
	ItemID    uuid.UUID       `json:"item_id" db:"item_id"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	ItemName  string          `json:"item_name,omitempty" db:"item_name"`
}

// Log records a production event. Invariant: 0 < actual <= planned.
// Inserting a log adds the actual quantity to product_stock in the same
// transaction; there is no trigger behind it.
type Log struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ProductID          uuid.UUID `json:"product_id" db:"product_id"`
	InventoryReleaseID uuid.UUID `json:"inventory_release_id" db:"inventory_release_id"`
	PlannedQuantity    int       `json:"planned_quantity" db:"planned_quantity"`
	ActualQuantity     int       `json:"actual_quantity" db:"actual_quantity"`
	Notes              string    `json:"notes" db:"notes"`
	LoggedAt           time.Time `json:"logged_at" db:"logged_at"`

	ProductName string `json:"product_name,omitempty" db:"product_name"`
}

// ProductStock mirrors the finished-goods counters for the production views.
type ProductStock struct {
	ProductID         uuid.UUID `json:"product_id" db:"product_id"`
	QuantityAvailable int       `json:"quantity_available" db:"quantity_available"`
	QuantityReserved  int       `json:"quantity_reserved" db:"quantity_reserved"`
}

// Shortage describes one raw material that blocks a release.
type Shortage struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}
