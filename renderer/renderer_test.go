package renderer

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mlanders/tradebook"
)

func sampleReport(t *testing.T) *PositionsReport {
	t.Helper()
	events, err := tradebook.NormaliseTrades([]tradebook.RawRecord{
		{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100, Fee: 2},
		{Ticker: "MSFT", Date: "2025-01-15", Quantity: -5, Price: 400},
	}, tradebook.RejectInvalid)
	if err != nil {
		t.Fatalf("NormaliseTrades() error = %v", err)
	}
	rates := tradebook.DefaultRates()
	var valuations []tradebook.Valuation
	for i, p := range tradebook.ComputePositions(events) {
		var quote *tradebook.Quote
		if i == 0 {
			// only the first position gets a market price; the second
			// must render as unknown, not zero.
			quote = &tradebook.Quote{Price: tradebook.M(120, p.Currency()), Source: "test"}
		}
		valuations = append(valuations, rates.Value(p, quote, tradebook.DisplayMarket))
	}

	cash := tradebook.CashBalances([]tradebook.CashEvent{
		{Date: tradebook.NewDate(2025, 1, 2), Amount: tradebook.M(5000, "AUD")},
	})
	return NewPositionsReport(tradebook.NewDate(2025, 8, 31), tradebook.DisplayMarket, valuations, cash)
}

func TestRenderPositions(t *testing.T) {
	md := RenderPositions(sampleReport(t))

	for _, want := range []string{"AAPL", "MSFT", "2025-08-31", "MARKET", "AUD"} {
		if !strings.Contains(md, want) {
			t.Errorf("report does not mention %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "error") {
		t.Errorf("template error leaked into output:\n%s", md)
	}
	// The quoteless position's market figures must be unknown, not $0.00.
	if !strings.Contains(md, unknown) {
		t.Errorf("missing market price must render as %q:\n%s", unknown, md)
	}
}

func TestRenderPositions_IsValidMarkdown(t *testing.T) {
	md := RenderPositions(sampleReport(t))

	doc := goldmark.New().Parser().Parse(text.NewReader([]byte(md)))
	headings := 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headings++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walking markdown AST: %v", err)
	}
	if headings < 2 {
		t.Errorf("headings = %d, want at least the title and cash sections", headings)
	}
}

func TestRenderPositions_Empty(t *testing.T) {
	report := NewPositionsReport(tradebook.NewDate(2025, 8, 31), "AUD", nil, nil)
	md := RenderPositions(report)
	if !strings.Contains(md, "No open positions") {
		t.Errorf("empty report should say so:\n%s", md)
	}
}
