package sale

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a walk-in POS transaction. Finished-goods stock is decremented
// when the sale is recorded; there is no reservation step.
type Sale struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CashierID   uuid.UUID       `json:"cashier_id" db:"cashier_id"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	SoldAt      time.Time       `json:"sold_at" db:"sold_at"`
	Items       []Item          `json:"items" db:"-"`
}

type Item struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	SaleID       uuid.UUID       `json:"sale_id" db:"sale_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`

	ProductName string `json:"product_name,omitempty" db:"product_name"`
}

type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Shortage reports finished stock that cannot cover a sale line.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Required  int       `json:"required"`
	Available int       `json:"available"`
}

// DailyReport aggregates sales per calendar day.
type DailyReport struct {
	Day     time.Time       `json:"day"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}
