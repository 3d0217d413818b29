package pdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pageCount(t *testing.T, b []byte) int {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(b), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("output is not a readable PDF: %v", err)
	}
	// ReadContext alone leaves PageCount at zero; validation fills it in.
	if err := api.ValidateContext(ctx); err != nil {
		t.Fatalf("output is not a valid PDF: %v", err)
	}
	return ctx.PageCount
}

func TestGenerateEnglishSinglePage(t *testing.T) {
	out := Generate(sampleRecord(), "en", DefaultConfig(), testCaps())
	if len(out) == 0 {
		t.Fatal("empty output")
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("page count = %d, want 1", got)
	}
}

func TestGenerateArabicSinglePage(t *testing.T) {
	record := sampleRecord()
	record["client_name"] = "مستشفى القاهرة العام"
	out := Generate(record, "ar", DefaultConfig(), testCaps())
	if len(out) == 0 {
		t.Fatal("empty output")
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("page count = %d, want 1", got)
	}
}

func TestGenerateMissingLogoKeepsLayout(t *testing.T) {
	caps := testCaps()
	caps.Logo = false
	out := Generate(sampleRecord(), "en", DefaultConfig(), caps)
	if got := pageCount(t, out); got != 1 {
		t.Errorf("page count without logo = %d, want 1", got)
	}
}

func TestGenerateManyItemsPaginates(t *testing.T) {
	record := sampleRecord()
	var items []any
	for i := 0; i < 200; i++ {
		items = append(items, map[string]any{
			"code":        "PM-100",
			"description": "Patient monitor with extended warranty and on-site installation",
			"quantity":    "1",
			"price":       "50",
		})
	}
	record["items"] = items

	out := Generate(record, "en", DefaultConfig(), testCaps())
	if got := pageCount(t, out); got < 2 {
		t.Errorf("page count = %d, want multiple pages", got)
	}
}

func TestGenerateMissingFontsStillRenders(t *testing.T) {
	caps := testCaps()
	caps.PrimaryFont = false
	caps.ArabicFont = false
	out := Generate(sampleRecord(), "ar", DefaultConfig(), caps)
	if got := pageCount(t, out); got != 1 {
		t.Errorf("page count = %d, want 1", got)
	}
}

func TestGenerateEngineUnavailableFallsBack(t *testing.T) {
	caps := testCaps()
	caps.PDFEngine = false
	out := Generate(sampleRecord(), "en", DefaultConfig(), caps)

	text := string(out)
	if !strings.HasPrefix(text, "Invoice (fallback)") {
		t.Fatalf("fallback output starts with %q", text[:min(len(text), 30)])
	}
	if !strings.Contains(text, "Cairo General Hospital") {
		t.Error("fallback output is missing the record payload")
	}
}

func TestFilename(t *testing.T) {
	name := Filename("42", "ar")
	if !strings.HasPrefix(name, "invoice_42_") {
		t.Errorf("filename = %q, want invoice_42_ prefix", name)
	}
	if !strings.HasSuffix(name, "_ar.pdf") {
		t.Errorf("filename = %q, want _ar.pdf suffix", name)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
