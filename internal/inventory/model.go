package inventory

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Item is a raw-material SKU (flour, butter, ...).
type Item struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Brand     string    `json:"brand" db:"brand"`
	Category  string    `json:"category" db:"category"`
	Unit      string    `json:"unit" db:"unit"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Purchase is a goods-receipt record for an inventory item.
// Invariant: wasted + useful <= purchased, all quantities non-negative.
type Purchase struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	ItemID            uuid.UUID       `json:"item_id" db:"item_id"`
	PurchaseDate      time.Time       `json:"purchase_date" db:"purchase_date"`
	PurchasedQuantity decimal.Decimal `json:"purchased_quantity" db:"purchased_quantity"`
	WastedQuantity    decimal.Decimal `json:"wasted_quantity" db:"wasted_quantity"`
	UsefulQuantity    decimal.Decimal `json:"useful_quantity" db:"useful_quantity"`
	BuyingPrice       decimal.Decimal `json:"buying_price" db:"buying_price"`
	Supplier          string          `json:"supplier" db:"supplier"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`

	// Denormalized from inventory_items for list/get responses.
	ItemName     string `json:"item_name,omitempty" db:"item_name"`
	ItemBrand    string `json:"item_brand,omitempty" db:"item_brand"`
	ItemCategory string `json:"item_category,omitempty" db:"item_category"`
}

// ItemStock is the on-hand quantity of a raw material. Maintained
// transactionally by purchase writes and inventory releases.
type ItemStock struct {
	ItemID   uuid.UUID       `json:"item_id" db:"item_id"`
	Quantity decimal.Decimal `json:"quantity" db:"quantity"`
}
