package payment

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "PENDING"
	StatusSucceeded = "SUCCEEDED"
)

type Payment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	OrderID          uuid.UUID       `json:"order_id" db:"order_id"`
	ProviderIntentID string          `json:"provider_intent_id" db:"provider_intent_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Status           string          `json:"status" db:"status"`
	Method           string          `json:"method" db:"method"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// Intent is what the provider hands back for the client to complete.
type Intent struct {
	ProviderIntentID string
	ClientSecret     string
}
