// Package pricing provides the unit price source for order lines. The
// inventory service does not expose prices on its product endpoint, so
// the price source is an injected dependency with a deterministic static
// implementation as the default wiring.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// StaticPricer prices every product at a fixed default unless an override
// is configured for it. Prices are always positive with scale 2.
type StaticPricer struct {
	defaultPrice decimal.Decimal
	overrides    map[int64]decimal.Decimal
}

func NewStaticPricer(defaultPrice decimal.Decimal, overrides map[int64]decimal.Decimal) (*StaticPricer, error) {
	if !defaultPrice.IsPositive() {
		return nil, fmt.Errorf("default unit price must be positive, got %s", defaultPrice)
	}
	for id, price := range overrides {
		if !price.IsPositive() {
			return nil, fmt.Errorf("price override for product %d must be positive, got %s", id, price)
		}
	}
	return &StaticPricer{
		defaultPrice: defaultPrice.Round(2),
		overrides:    overrides,
	}, nil
}

func (p *StaticPricer) PriceFor(_ context.Context, productID int64) (decimal.Decimal, error) {
	if price, ok := p.overrides[productID]; ok {
		return price.Round(2), nil
	}
	return p.defaultPrice, nil
}
