package pdf

import (
	"testing"
)

func TestNormalizeRecordAliases(t *testing.T) {
	cases := []struct {
		name string
		item map[string]any
	}{
		{"canonical keys", map[string]any{"description": "Patient monitor", "quantity": "2", "price": "50"}},
		{"short keys", map[string]any{"desc": "Patient monitor", "qty": "2", "unit": "50"}},
		{"mixed keys", map[string]any{"description": "Patient monitor", "qty": "2", "unit": "50"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := NormalizeRecord(map[string]any{"items": []any{tc.item}})
			if len(rec.Items) != 1 {
				t.Fatalf("items = %d, want 1", len(rec.Items))
			}
			li := rec.Items[0]
			if li.Description != "Patient monitor" || li.Quantity != "2" || li.UnitPrice != "50" {
				t.Errorf("normalized item = %+v", li)
			}
			if li.LineTotal != "100" {
				t.Errorf("line total = %q, want %q", li.LineTotal, "100")
			}
		})
	}
}

func TestNormalizeRecordNetRecomputed(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"subtotal": 175.0,
		"tax":      31.5,
		"discount": 6.5,
		"total":    9999.0, // stale caller total must lose to the recomputation
	})
	if got := rec.NetTotal.StringFixed(2); got != "200.00" {
		t.Errorf("net total = %q, want %q", got, "200.00")
	}
}

func TestNormalizeRecordSubtotalFallbacks(t *testing.T) {
	t.Run("sum of items", func(t *testing.T) {
		rec := NormalizeRecord(sampleRecord())
		if got := rec.Subtotal.StringFixed(2); got != "175.00" {
			t.Errorf("subtotal = %q, want %q", got, "175.00")
		}
	})
	t.Run("flat total", func(t *testing.T) {
		rec := NormalizeRecord(map[string]any{"total": "3,500 LE"})
		if got := rec.Subtotal.StringFixed(2); got != "3500.00" {
			t.Errorf("subtotal = %q, want %q", got, "3500.00")
		}
	})
	t.Run("empty record", func(t *testing.T) {
		rec := NormalizeRecord(map[string]any{})
		if !rec.NetTotal.IsZero() {
			t.Errorf("net total = %s, want 0", rec.NetTotal)
		}
	})
}

func TestNormalizeRecordMalformedValuesPassThrough(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"items": []any{
			map[string]any{"description": "Install visit", "quantity": "on request", "price": "TBD"},
		},
	})
	li := rec.Items[0]
	if li.Quantity != "on request" || li.UnitPrice != "TBD" {
		t.Errorf("raw values altered: %+v", li)
	}
	if li.LineTotal != "0" {
		t.Errorf("line total = %q, want %q", li.LineTotal, "0")
	}
}

func TestNormalizeRecordCurrencyDefault(t *testing.T) {
	rec := NormalizeRecord(map[string]any{})
	if rec.Client.Currency != "EGP" {
		t.Errorf("currency = %q, want EGP", rec.Client.Currency)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"float", 12.5, "12.5", true},
		{"int", 7, "7", true},
		{"string with marker", "3500 LE", "3500", true},
		{"string with commas", "1,234.50", "1234.5", true},
		{"garbage", "on request", "", false},
		{"nil", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := parseAmount(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && d.String() != tc.want {
				t.Errorf("value = %s, want %s", d, tc.want)
			}
		})
	}
}
