package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// EODHD fetches quotes from the EODHD real-time endpoint. It is the last
// provider in the default chain and mops up symbols the earlier providers
// could not answer. EODHD real-time responses carry no currency, so quotes
// default to AUD, the ledger's home currency.
type EODHD struct {
	APIKey  string
	Client  *http.Client
	BaseURL string // defaults to the public API, overridable in tests
}

func (p *EODHD) Name() string { return "eodhd" }

// Fetch queries the real-time endpoint one symbol at a time. A symbol the
// vendor does not know yields "NA" fields and is left unresolved.
func (p *EODHD) Fetch(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("eodhd: missing API key")
	}
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

func (p *EODHD) fetchOne(ctx context.Context, client *http.Client, symbol string) (*Quote, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://eodhd.com"
	}
	addr := fmt.Sprintf("%s/api/real-time/%s?fmt=json&api_token=%s",
		base, url.PathEscape(symbol), url.QueryEscape(p.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := jwgetReq(client, req, &jobj); err != nil {
		return nil, fmt.Errorf("eodhd %q: %w", symbol, err)
	}

	price, err := pathFloat(jobj, "$.close")
	if err != nil {
		return nil, fmt.Errorf("eodhd %q: %w", symbol, err)
	}

	asOf := now()
	if ts, err := pathFloat(jobj, "$.timestamp"); err == nil {
		asOf = time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
	}
	return &Quote{Price: price, Currency: "AUD", AsOf: asOf, Source: "eodhd-realtime"}, nil
}

// pathFloat extracts a numeric value at a jsonpath, tolerating the vendor's
// habit of sometimes quoting numbers (and answering "NA" for unknowns).
func pathFloat(jobj any, path string) (float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath is never clear about whether it returns a list of one
	// answer or a single answer; keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number at %q", v, path)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("no number at %q: %v", path, jval)
	}
}
