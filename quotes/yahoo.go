package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// Yahoo fetches quotes from the Yahoo Finance v8 chart endpoint. It needs
// no API key and sits between TwelveData and EODHD in the default chain,
// picking up exchange-suffixed symbols like "CBA.AX".
type Yahoo struct {
	Client  *http.Client
	BaseURL string // defaults to the public API, overridable in tests
}

func (p *Yahoo) Name() string { return "yahoo" }

// Fetch queries the chart endpoint one symbol at a time. A symbol without a
// regular market price is left unresolved.
func (p *Yahoo) Fetch(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	out := make(map[string]*Quote, len(symbols))
	for _, sym := range symbols {
		quote, err := p.fetchOne(ctx, client, sym)
		if err != nil {
			// one bad symbol must not sink the batch
			continue
		}
		out[sym] = quote
	}
	return out, nil
}

func (p *Yahoo) fetchOne(ctx context.Context, client *http.Client, symbol string) (*Quote, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://query1.finance.yahoo.com"
	}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", base, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := jwgetReq(client, req, &jobj); err != nil {
		return nil, fmt.Errorf("yahoo %q: %w", symbol, err)
	}

	price, err := pathFloat(jobj, "$.chart.result[0].meta.regularMarketPrice")
	if err != nil {
		return nil, fmt.Errorf("yahoo %q: %w", symbol, err)
	}

	currency := pathString(jobj, "$.chart.result[0].meta.currency")
	if currency == "" {
		currency = "AUD"
	}
	asOf := now()
	if ts, err := pathFloat(jobj, "$.chart.result[0].meta.regularMarketTime"); err == nil {
		asOf = time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
	}
	return &Quote{Price: price, Currency: currency, AsOf: asOf, Source: "yahoo-finance"}, nil
}

// pathString extracts a string at a jsonpath, "" when absent.
func pathString(jobj any, path string) string {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return ""
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	s, _ := jval.(string)
	return s
}
