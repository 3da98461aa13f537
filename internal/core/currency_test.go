package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in  string
		out Currency
		ok  bool
	}{
		{"USD", USD, true},
		{"usd", USD, true},
		{" cad ", CAD, true},
		{"CAD", CAD, true},
		{"EUR", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCurrency(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestToUsd(t *testing.T) {
	cases := []struct {
		currency Currency
		amount   string
		want     string
	}{
		{USD, "100", "100"},
		{CAD, "100", "71"},
		{CAD, "100.33", "71.23"},
		// 100.36 * 0.71 = 71.2556, rounds half-up to 71.26
		{CAD, "100.36", "71.26"},
		{CAD, "0", "0"},
	}
	for _, tc := range cases {
		got := tc.currency.ToUsd(decimal.RequireFromString(tc.amount))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s ToUsd(%s) expected %s, got %s", tc.currency, tc.amount, tc.want, got)
		}
	}
}

func TestFromUsdRate(t *testing.T) {
	if got := USD.FromUsdRate(); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("USD reverse rate expected 1, got %s", got)
	}
	// 1 / 0.71 = 1.40845..., rounded to 3 decimals
	if got := CAD.FromUsdRate(); !got.Equal(decimal.RequireFromString("1.408")) {
		t.Fatalf("CAD reverse rate expected 1.408, got %s", got)
	}
}

func TestFromUsd(t *testing.T) {
	// Uses the pre-rounded reverse rate, not a raw division:
	// 100 * 1.408 = 140.80, while 100 / 0.71 would give 140.85.
	got := CAD.FromUsd(decimal.NewFromInt(100))
	if !got.Equal(decimal.RequireFromString("140.8")) {
		t.Fatalf("CAD FromUsd(100) expected 140.80, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		currency Currency
		amount   string
		want     string
	}{
		{USD, "1200", "$1,200"},
		{USD, "1200.50", "$1,200.50"},
		{USD, "1234567.89", "$1,234,567.89"},
		{USD, "0", "$0"},
		{USD, "-42.10", "$-42.10"},
		{CAD, "999", "C$999"},
		{CAD, "1408.5", "C$1,408.50"},
	}
	for _, tc := range cases {
		got := tc.currency.Format(decimal.RequireFromString(tc.amount))
		if got != tc.want {
			t.Fatalf("%s Format(%s) expected %q, got %q", tc.currency, tc.amount, tc.want, got)
		}
	}
}

func TestSymbolAndLabel(t *testing.T) {
	if USD.Symbol() != "$" || CAD.Symbol() != "C$" {
		t.Fatalf("unexpected symbols: %q %q", USD.Symbol(), CAD.Symbol())
	}
	if USD.Label() != "US Dollar" || CAD.Label() != "Canadian Dollar" {
		t.Fatalf("unexpected labels: %q %q", USD.Label(), CAD.Label())
	}
}
