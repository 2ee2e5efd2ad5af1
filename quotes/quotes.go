// Package quotes fetches live market prices for ticker symbols.
//
// Providers normalise wildly different vendor responses to one shape per
// symbol: price, currency, as-of timestamp and source tag, or nil when the
// vendor has nothing. A Chain tries providers in order and keeps whatever
// each one could answer; a symbol nobody answered stays nil, which the
// valuation layer treats as "no market price", never as an error.
package quotes

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlanders/tradebook"
)

// Quote is one normalised vendor quote.
type Quote struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	AsOf     string  `json:"asOf"`
	Source   string  `json:"source"`
}

// Engine converts the vendor quote to the engine's quote shape.
func (q *Quote) Engine() *tradebook.Quote {
	if q == nil {
		return nil
	}
	return &tradebook.Quote{
		Price:  tradebook.M(q.Price, q.Currency),
		AsOf:   q.AsOf,
		Source: q.Source,
	}
}

// Provider fetches quotes for a set of symbols. Symbols the provider cannot
// answer are simply absent (or nil) in the result; a non-nil error means the
// provider as a whole failed (bad key, rate limit, network).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) (map[string]*Quote, error)
}

// Chain tries each provider in order, keeping the first answer per symbol.
// Provider failures are logged and skipped; missing entries degrade to
// "no market price" downstream.
type Chain struct {
	providers []Provider
	log       zerolog.Logger
}

// NewChain builds a provider chain.
func NewChain(log zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log.With().Str("component", "quotes").Logger()}
}

// Fetch resolves quotes for the given symbols. The result has an entry for
// every requested symbol; unresolved ones are nil.
func (c *Chain) Fetch(ctx context.Context, symbols []string) map[string]*Quote {
	out := make(map[string]*Quote, len(symbols))
	for _, sym := range symbols {
		out[sym] = nil
	}

	missing := symbols
	for _, p := range c.providers {
		if len(missing) == 0 {
			break
		}
		got, err := p.Fetch(ctx, missing)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
			continue
		}
		var still []string
		for _, sym := range missing {
			if q := got[sym]; q != nil {
				out[sym] = q
			} else {
				still = append(still, sym)
			}
		}
		missing = still
	}
	return out
}

// now returns the current instant formatted the way vendor as-of fields are,
// used when a vendor omits its own timestamp.
func now() string { return time.Now().UTC().Format(time.RFC3339) }
