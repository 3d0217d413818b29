package i18n

import "testing"

func TestTranslationLookup(t *testing.T) {
	if got := T("en", "doc.invoice"); got != "Invoice" {
		t.Errorf(`T("en", "doc.invoice") = %q, want "Invoice"`, got)
	}
	if got := T("ar", "doc.quotation"); got != "عرض سعر" {
		t.Errorf(`T("ar", "doc.quotation") = %q`, got)
	}
}

func TestFallbackToEnglishThenKey(t *testing.T) {
	// unknown language falls back to the English table
	if got := T("fr", "doc.invoice"); got != "Invoice" {
		t.Errorf("unknown language lookup = %q, want English fallback", got)
	}
	// unknown key falls back to the key itself
	if got := T("en", "no.such.key"); got != "no.such.key" {
		t.Errorf("unknown key lookup = %q, want key passthrough", got)
	}
}

func TestStripComments(t *testing.T) {
	in := []byte("{\n// note for translators\n\"k\": \"v\"\n}")
	got := string(stripComments(in))
	if got != "{\n\"k\": \"v\"\n}" {
		t.Errorf("stripComments = %q", got)
	}
}
