package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TwelveData fetches quotes from the Twelve Data /quote endpoint. It is the
// first provider in the default chain: one batched call covers many symbols
// and the response carries currency metadata.
type TwelveData struct {
	APIKey  string
	Client  *http.Client
	BaseURL string // defaults to the public API, overridable in tests
}

func (p *TwelveData) Name() string { return "twelvedata" }

// Fetch asks for all symbols in one batched request.
//
// The endpoint answers with two shapes: a single quote object for one
// symbol, or a map keyed by symbol for a batch. Both are handled; a
// per-symbol error object just leaves that symbol unresolved.
func (p *TwelveData) Fetch(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("twelvedata: missing API key")
	}
	if len(symbols) == 0 {
		return map[string]*Quote{}, nil
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	base := p.BaseURL
	if base == "" {
		base = "https://api.twelvedata.com"
	}
	q := url.Values{}
	q.Set("symbol", strings.Join(symbols, ","))
	q.Set("apikey", p.APIKey)
	addr := base + "/quote?" + q.Encode()

	var jobj map[string]any
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if err := jwgetReq(client, req, &jobj); err != nil {
		return nil, fmt.Errorf("twelvedata: %w", err)
	}
	if status, _ := jobj["status"].(string); status == "error" {
		msg, _ := jobj["message"].(string)
		return nil, fmt.Errorf("twelvedata: %s", msg)
	}

	out := make(map[string]*Quote, len(symbols))

	// Batch responses are keyed by symbol; a single-symbol response is the
	// quote object itself (it has a "symbol" field instead).
	if _, single := jobj["symbol"]; single {
		sym, _ := jobj["symbol"].(string)
		if sym == "" && len(symbols) == 1 {
			sym = symbols[0]
		}
		if quote := p.normaliseOne(jobj); quote != nil {
			out[strings.ToUpper(sym)] = quote
		}
		return out, nil
	}
	for _, sym := range symbols {
		item, ok := jobj[sym].(map[string]any)
		if !ok {
			continue
		}
		if quote := p.normaliseOne(item); quote != nil {
			out[sym] = quote
		}
	}
	return out, nil
}

// normaliseOne maps one vendor quote object to the normalised shape, or nil
// when it has no usable price.
func (p *TwelveData) normaliseOne(obj map[string]any) *Quote {
	if status, _ := obj["status"].(string); status == "error" {
		return nil
	}
	// the latest price hides under several names depending on the plan
	price, ok := pickFloat(obj, "price", "close", "last")
	if !ok {
		return nil
	}
	currency, _ := obj["currency"].(string)
	if currency == "" {
		currency = "USD"
	}
	asOf, _ := obj["datetime"].(string)
	if asOf == "" {
		asOf = now()
	}
	return &Quote{Price: price, Currency: currency, AsOf: asOf, Source: "twelvedata-live"}
}

// pickFloat returns the first of the named fields holding a number, whether
// the vendor sent it as a JSON number or a numeric string.
func pickFloat(obj map[string]any, fields ...string) (float64, bool) {
	for _, f := range fields {
		switch v := obj[f].(type) {
		case float64:
			return v, true
		case string:
			if n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// jwgetReq is jwget for a prepared request (needed to thread the context).
func jwgetReq(client *http.Client, req *http.Request, data interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(data)
}
