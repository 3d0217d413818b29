package shaping_test

import (
	"testing"

	"github.com/MohamedMedhat18/HEO-System/internal/shaping"
)

func TestShapeLTRIsIdentity(t *testing.T) {
	s := shaping.New(true)
	inputs := []string{"", "Invoice", "1,234.50 LE", "فاتورة", "mixed نص text"}
	for _, in := range inputs {
		if got := s.Shape(in, false); got != in {
			t.Errorf("Shape(%q, rtl=false) = %q, want input unchanged", in, got)
		}
	}
}

func TestShapeDisabledSoftFails(t *testing.T) {
	s := shaping.New(false)
	in := "فاتورة تجارية"
	if got := s.Shape(in, true); got != in {
		t.Errorf("disabled shaper must return input unchanged, got %q", got)
	}
}

func TestShapeArabicChangesForm(t *testing.T) {
	s := shaping.New(true)
	in := "فاتورة"
	got := s.Shape(in, true)
	if got == "" {
		t.Fatal("shaped output is empty")
	}
	if got == in {
		t.Errorf("expected joined glyph forms for %q, got input unchanged", in)
	}
}

func TestShapeLatinDigitsSurvive(t *testing.T) {
	s := shaping.New(true)
	got := s.Shape("175.00", true)
	if got == "" {
		t.Fatal("shaped output is empty")
	}
	// digits have no Arabic presentation forms; they must still be present
	for _, r := range []rune{'1', '7', '5'} {
		found := false
		for _, g := range got {
			if g == r {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("digit %q missing from shaped output %q", r, got)
		}
	}
}

func TestShapeValueCoercion(t *testing.T) {
	s := shaping.New(true)
	if got := s.ShapeValue(42, false); got != "42" {
		t.Errorf("ShapeValue(42) = %q, want \"42\"", got)
	}
	if got := s.ShapeValue(nil, false); got != "" {
		t.Errorf("ShapeValue(nil) = %q, want empty", got)
	}
	if got := s.ShapeValue(2.5, false); got != "2.5" {
		t.Errorf("ShapeValue(2.5) = %q, want \"2.5\"", got)
	}
}
