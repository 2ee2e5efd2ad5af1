package tradebook

import (
	"math"
	"testing"
)

func TestRateTable_Convert(t *testing.T) {
	rates := DefaultRates()

	testCases := []struct {
		name   string
		amount Money
		to     string
		want   float64
	}{
		{"identity", M(100, "USD"), "USD", 100},
		{"to pivot", M(100, "USD"), "AUD", 165},
		{"from pivot", M(165, "AUD"), "USD", 100},
		{"cross rate via pivot", M(100, "USD"), "EUR", 100 * 1.65 / 1.8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rates.Convert(tc.amount, tc.to)
			if got.Currency() != tc.to {
				t.Errorf("currency = %q, want %q", got.Currency(), tc.to)
			}
			if math.Abs(got.AsFloat()-tc.want) > 1e-9 {
				t.Errorf("Convert(%s, %s) = %v, want %v", tc.amount, tc.to, got.AsFloat(), tc.want)
			}
		})
	}
}

func TestRateTable_RoundTrip(t *testing.T) {
	rates := DefaultRates()
	for _, from := range rates.Currencies() {
		for _, to := range rates.Currencies() {
			got := rates.Convert(rates.Convert(M(100, from), to), from)
			if math.Abs(got.AsFloat()-100) > 1e-9 {
				t.Errorf("round trip %s->%s->%s = %v, want 100", from, to, from, got.AsFloat())
			}
		}
	}
}

func TestRateTable_UnknownCurrencyPassesThrough(t *testing.T) {
	// An unknown code defaults to rate 1. This is a documented
	// approximation; it must not error and must not distort the amount
	// beyond the target currency's own rate.
	rates := DefaultRates()

	got := rates.Convert(M(100, "JPY"), "AUD")
	if math.Abs(got.AsFloat()-100) > 1e-9 {
		t.Errorf("Convert(100 JPY, AUD) = %v, want 100 (pass-through rate)", got.AsFloat())
	}
	back := rates.Convert(M(100, "AUD"), "XZY")
	if math.Abs(back.AsFloat()-100) > 1e-9 {
		t.Errorf("Convert(100 AUD, XZY) = %v, want 100", back.AsFloat())
	}
}

func TestNewRateTable_PivotRateForcedToOne(t *testing.T) {
	rates := NewRateTable("AUD", map[string]float64{"AUD": 42, "USD": 1.65})
	got := rates.Convert(M(10, "AUD"), "AUD")
	if math.Abs(got.AsFloat()-10) > 1e-9 {
		t.Errorf("pivot self-conversion = %v, want 10", got.AsFloat())
	}
}
