package shaping

import (
	"fmt"

	"github.com/01walid/goarabic"
	"golang.org/x/text/unicode/bidi"
)

// Shaper converts logical strings into visual order for PDF layout.
// A disabled Shaper passes text through unchanged, which keeps the
// render pipeline alive when Arabic shaping is not wanted or unavailable.
type Shaper struct {
	enabled bool
}

func New(enabled bool) *Shaper {
	return &Shaper{enabled: enabled}
}

func (s *Shaper) Enabled() bool {
	return s.enabled
}

// Shape prepares text for PDF layout. With rtl false the input is returned
// as-is. With rtl true, Arabic letters are joined into their contextual
// glyph forms and the string is reordered into visual right-to-left order.
// Shape never fails: if reordering cannot be computed the original string
// is returned unchanged.
func (s *Shaper) Shape(text string, rtl bool) string {
	if !rtl || !s.enabled {
		return text
	}
	joined := goarabic.ToGlyph(text)
	visual, ok := reorder(joined)
	if !ok {
		return text
	}
	return visual
}

// ShapeValue is Shape for values that may not be strings (quantities,
// totals, nil interface fields from decoded JSON).
func (s *Shaper) ShapeValue(v any, rtl bool) string {
	str, isStr := v.(string)
	if !isStr {
		if v == nil {
			str = ""
		} else {
			str = fmt.Sprint(v)
		}
	}
	return s.Shape(str, rtl)
}

// reorder runs the Unicode bidirectional algorithm with a right-to-left
// base direction and concatenates the runs in visual order, reversing the
// runes of each right-to-left run.
func reorder(text string) (string, bool) {
	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
		return "", false
	}
	ordering, err := p.Order()
	if err != nil {
		return "", false
	}
	out := make([]rune, 0, len(text))
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		runes := []rune(run.String())
		if run.Direction() == bidi.RightToLeft {
			for l, r := 0, len(runes)-1; l < r; l, r = l+1, r-1 {
				runes[l], runes[r] = runes[r], runes[l]
			}
		}
		out = append(out, runes...)
	}
	return string(out), true
}
