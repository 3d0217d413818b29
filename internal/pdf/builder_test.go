package pdf

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MohamedMedhat18/HEO-System/internal/i18n"
)

func testCaps() Capabilities {
	return Capabilities{Shaping: true, PDFEngine: true, ImageMeta: true}
}

func sampleRecord() map[string]any {
	return map[string]any{
		"id":          "42",
		"client_name": "Cairo General Hospital",
		"client_ref":  "CGH-7",
		"currency":    "EGP",
		"items": []any{
			map[string]any{"code": "PM-100", "description": "Patient monitor", "quantity": "2", "price": "50"},
			map[string]any{"code": "SP-200", "description": "Spare sensor kit", "quantity": "1", "price": "75"},
		},
	}
}

func findTotals(t *testing.T, doc Document) TotalsBlock {
	t.Helper()
	for _, b := range doc.Blocks {
		if totals, ok := b.(TotalsBlock); ok {
			return totals
		}
	}
	t.Fatal("document has no totals block")
	return TotalsBlock{}
}

func findItems(t *testing.T, doc Document) ItemsTableBlock {
	t.Helper()
	for _, b := range doc.Blocks {
		if items, ok := b.(ItemsTableBlock); ok {
			return items
		}
	}
	t.Fatal("document has no items table block")
	return ItemsTableBlock{}
}

func TestBuildEnglishTotals(t *testing.T) {
	rec := NormalizeRecord(sampleRecord())
	doc := NewBuilder(DefaultConfig(), testCaps()).Build(rec, "en")

	totals := findTotals(t, doc)
	if totals.NetValue != "175.00 LE" {
		t.Errorf("net total = %q, want %q", totals.NetValue, "175.00 LE")
	}
	if totals.Lines[0].Value != "175.00 LE" {
		t.Errorf("subtotal = %q, want %q", totals.Lines[0].Value, "175.00 LE")
	}

	items := findItems(t, doc)
	if len(items.Rows) != 2 {
		t.Fatalf("items rows = %d, want 2", len(items.Rows))
	}
	if items.Rows[0][5] != "100.00 LE" {
		t.Errorf("first line total = %q, want %q", items.Rows[0][5], "100.00 LE")
	}
	if items.Headers[2] != i18n.T("en", "table.description") {
		t.Errorf("english header shaped: %q", items.Headers[2])
	}
}

func TestBuildArabicShapesLabels(t *testing.T) {
	rec := NormalizeRecord(sampleRecord())
	doc := NewBuilder(DefaultConfig(), testCaps()).Build(rec, "ar")

	if !doc.RTL {
		t.Fatal("arabic document not flagged RTL")
	}
	items := findItems(t, doc)
	raw := i18n.T("ar", "table.description")
	if items.Headers[2] == raw {
		t.Errorf("arabic header %q not shaped", items.Headers[2])
	}

	// the numeric value stays first, the currency token follows it
	totals := findTotals(t, doc)
	if !strings.HasPrefix(totals.NetValue, "175.00") {
		t.Errorf("arabic net total = %q, want number-first", totals.NetValue)
	}
	if totals.NetValue == "175.00" {
		t.Errorf("arabic net total %q is missing the currency token", totals.NetValue)
	}
}

func TestBuildTitleResolution(t *testing.T) {
	cases := []struct {
		name     string
		docType  string
		language string
		want     string
	}{
		{"english default", "", "en", "Invoice"},
		{"english verbatim", "Commercial Invoice", "en", "Commercial Invoice"},
		{"english unknown type", "Delivery Note", "en", "Delivery Note"},
	}
	b := NewBuilder(DefaultConfig(), testCaps())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := b.resolveTitle(tc.docType, tc.language)
			if got != tc.want {
				t.Errorf("resolveTitle(%q, %q) = %q, want %q", tc.docType, tc.language, got, tc.want)
			}
		})
	}

	// known Arabic types map to translated titles, not the raw type
	got := b.resolveTitle("Quotation Invoice", "ar")
	if got == "Quotation Invoice" || got == "" {
		t.Errorf("arabic quotation title = %q, want translated", got)
	}
}

func TestRateLabelComputedFromAmounts(t *testing.T) {
	b := NewBuilder(DefaultConfig(), testCaps())
	subtotal := decimal.NewFromInt(175)

	got := b.rateLabel("totals.tax", decimal.NewFromFloat(31.5), subtotal, "en")
	if !strings.Contains(got, "(18%)") {
		t.Errorf("tax label = %q, want computed 18%% rate", got)
	}

	got = b.rateLabel("totals.tax", decimal.Zero, subtotal, "en")
	if strings.Contains(got, "%") {
		t.Errorf("zero tax label = %q, want no rate", got)
	}

	got = b.rateLabel("totals.discount", decimal.NewFromInt(10), decimal.Zero, "en")
	if strings.Contains(got, "%") {
		t.Errorf("zero subtotal label = %q, want no rate", got)
	}
}

func TestMoneyFormatting(t *testing.T) {
	b := NewBuilder(DefaultConfig(), testCaps())
	cases := []struct {
		raw  string
		want string
	}{
		{"175", "175.00 LE"},
		{"1234.5", "1,234.50 LE"},
		{"3500 LE", "3,500.00 LE"},
		{"1,000,000", "1,000,000.00 LE"},
		{"N/A", "N/A LE"},
	}
	for _, tc := range cases {
		if got := b.money(tc.raw, "en"); got != tc.want {
			t.Errorf("money(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234.5, "1,234.50"},
		{175, "175.00"},
		{0.1, "0.10"},
		{1000000, "1,000,000.00"},
		{-1234.5, "-1,234.50"},
		{999, "999.00"},
	}
	for _, tc := range cases {
		if got := formatThousands(decimal.NewFromFloat(tc.in)); got != tc.want {
			t.Errorf("formatThousands(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
