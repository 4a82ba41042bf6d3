package payment

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Provider creates payment intents with an external processor. The local
// implementation issues intents without card capture; a processor-backed one
// plugs in behind the same interface.
type Provider interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*Intent, error)
}

type localProvider struct{}

// NewLocalProvider returns a provider that mints intent identifiers locally.
func NewLocalProvider() Provider {
	return &localProvider{}
}

func (p *localProvider) CreateIntent(_ context.Context, _ uuid.UUID, _ decimal.Decimal) (*Intent, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("provider: failed to generate intent ID: %w", err)
	}
	secret, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("provider: failed to generate client secret: %w", err)
	}

	return &Intent{
		ProviderIntentID: "pi_" + id.String(),
		ClientSecret:     "pi_" + id.String() + "_secret_" + secret.String(),
	}, nil
}
