package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeDirectSale      = "DIRECT_SALE"
	TypeProductionOrder = "PRODUCTION_ORDER"
)

const (
	StatusPending        = "PENDING"
	StatusPaymentPending = "PAYMENT_PENDING"
	StatusPaid           = "PAID"
	StatusCompleted      = "COMPLETED"
	StatusCancelled      = "CANCELLED"
)

// allowedTransitions is the persisted order state machine. Every status
// change goes through it while the order row is locked.
var allowedTransitions = map[string][]string{
	StatusPending:        {StatusPaymentPending, StatusCancelled},
	StatusPaymentPending: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusCompleted},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func isTransitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ShippingAddress is stored as jsonb on the order row.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	OrderType        string          `json:"order_type" db:"order_type"`
	Status           string          `json:"status" db:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	ShippingAddress  ShippingAddress `json:"shipping_address" db:"shipping_address"`
	ReserveExpiresAt *time.Time      `json:"reserve_expires_at,omitempty" db:"reserve_expires_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	Items            []Item          `json:"items" db:"-"`
}

type Item struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`

	ProductName string `json:"product_name,omitempty" db:"product_name"`
}

// Reservation holds stock taken out of circulation for a pending order.
// Exactly one of ItemID (raw material) or ProductID (finished goods) is set.
type Reservation struct {
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ItemID    *uuid.UUID      `json:"item_id,omitempty" db:"item_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
}

// LineError reports a configuration problem with one requested order line.
type LineError struct {
	ProductID uuid.UUID `json:"product_id"`
	Message   string    `json:"message"`
}

// Shortage reports stock that cannot cover a requested order line.
type Shortage struct {
	ItemID    *uuid.UUID      `json:"item_id,omitempty"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}
