package product

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable or produced item.
type Product struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	Name                string          `json:"name" db:"name"`
	Description         string          `json:"description" db:"description"`
	SellingPrice        decimal.Decimal `json:"selling_price" db:"selling_price"`
	MinProductionAmount int             `json:"min_production_amount" db:"min_production_amount"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// RecipeLine maps a product to one inventory item consumed per unit produced.
type RecipeLine struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	ItemID          uuid.UUID       `json:"item_id" db:"item_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" db:"quantity_per_unit"`

	ItemName string `json:"item_name,omitempty" db:"item_name"`
	ItemUnit string `json:"item_unit,omitempty" db:"item_unit"`
}

// Stock is the finished-goods quantity for a product. quantity_reserved is
// held by pending orders and released when they complete or cancel.
type Stock struct {
	ProductID         uuid.UUID `json:"product_id" db:"product_id"`
	QuantityAvailable int       `json:"quantity_available" db:"quantity_available"`
	QuantityReserved  int       `json:"quantity_reserved" db:"quantity_reserved"`
}
