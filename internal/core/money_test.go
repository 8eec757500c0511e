package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"25000", 2500000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseMoneyCoercesInvalidToZero(t *testing.T) {
	for _, in := range []string{"abc", "-5", "", "  "} {
		if got := ParseMoney(in); got.Cents != 0 {
			t.Fatalf("%q expected 0, got %d", in, got.Cents)
		}
	}
	if got := ParseMoney("18.99"); got != Cent(18, 99) {
		t.Fatalf("expected 18.99, got %s", got)
	}
}

func TestMoneyPercentRoundsHalfUp(t *testing.T) {
	price := Cent(18, 99)
	if got := price.Percent(decimal.RequireFromString("0.85")); got.String() != "16.14" {
		t.Fatalf("expected 16.14, got %s", got)
	}
	if got := price.Percent(decimal.RequireFromString("0.15")); got.String() != "2.85" {
		t.Fatalf("expected 2.85, got %s", got)
	}
}

func TestMoneyStringAndDiv(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{}, "0.00"},
		{Cent(21, 20), "21.20"},
		{Money{Cents: -100000}, "-1000.00"},
		{Cent(6000, 0).Div(4), "1500.00"},
		{Cent(10, 0).Div(3), "3.33"},
		{Cent(10, 0).Div(0), "0.00"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P Money `json:"p"`
	}{Cent(16, 14)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"p":16.14}` {
		t.Fatalf("unexpected json %s", b)
	}

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":45.2,"b":"8"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.A != Cent(45, 20) || in.B != Cent(8, 0) {
		t.Fatalf("unexpected decode %+v", in)
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(45.2); got.Cents != 4520 {
		t.Fatalf("expected 4520, got %d", got.Cents)
	}
}
