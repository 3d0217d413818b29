package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/MohamedMedhat18/HEO-System/internal/i18n"
	"github.com/MohamedMedhat18/HEO-System/internal/shaping"
	"github.com/shopspring/decimal"
)

// Block is one structural section of a rendered document. Blocks hold
// pre-shaped, already-localized strings; the engine only lays them out.
type Block interface {
	isBlock()
}

type LabeledValue struct {
	Label string
	Value string
}

// HeaderBlock carries the company identity banner.
type HeaderBlock struct {
	CompanyName string
	CompanyDesc string
	Address     LabeledValue
	Contact     []LabeledValue // tel/fax, email/web pairs
	LogoPath    string
}

// TitleBlock carries the resolved document title banner.
type TitleBlock struct {
	Title string
}

// ClientInfoBlock carries the two-row client panel.
type ClientInfoBlock struct {
	Rows [2][3]LabeledValue
}

// ItemsTableBlock carries the line item grid, header row included.
type ItemsTableBlock struct {
	Headers [6]string
	Rows    [][6]string
}

// TotalsBlock carries the subtotal/tax/discount lines and the net band.
type TotalsBlock struct {
	Lines    []LabeledValue
	NetLabel string
	NetValue string
}

// SignatureBlock carries the seller box.
type SignatureBlock struct {
	Heading   string
	Company   string
	Signature LabeledValue
	Date      LabeledValue
}

// FooterBlock carries the closing note.
type FooterBlock struct {
	Note string
}

// ParagraphBlock is the degraded stand-in for any block whose structured
// form cannot be produced.
type ParagraphBlock struct {
	Lines []string
}

func (HeaderBlock) isBlock()     {}
func (TitleBlock) isBlock()      {}
func (ClientInfoBlock) isBlock() {}
func (ItemsTableBlock) isBlock() {}
func (TotalsBlock) isBlock()     {}
func (SignatureBlock) isBlock()  {}
func (FooterBlock) isBlock()     {}
func (ParagraphBlock) isBlock()  {}

// Document is the block sequence for a single render call. Blocks are
// created, rendered and discarded together; nothing outlives the call.
type Document struct {
	Blocks   []Block
	Language string
	RTL      bool
	Record   Record // kept for the plain-text fallback encoding
}

// Builder maps a normalized Record into a Document. It owns all the
// per-language policy: label localization, title resolution, currency
// token placement and Arabic shaping.
type Builder struct {
	cfg    RenderConfig
	caps   Capabilities
	shaper *shaping.Shaper
}

func NewBuilder(cfg RenderConfig, caps Capabilities) *Builder {
	return &Builder{cfg: cfg, caps: caps, shaper: shaping.New(caps.Shaping)}
}

// Arabic titles for the stock document types. Unknown types are kept
// verbatim and shaped.
var arabicDocTypes = map[string]string{
	"Invoice":            "doc.invoice",
	"Quotation Invoice":  "doc.quotation",
	"Commercial Invoice": "doc.commercial",
	"Proforma Invoice":   "doc.proforma",
}

// Build is deterministic for a given (record, language) apart from the
// creation date default, which substitutes the current day when the
// record omits a date.
func (b *Builder) Build(rec Record, language string) Document {
	rtl := language == "ar"
	doc := Document{Language: language, RTL: rtl, Record: rec}

	date := rec.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	// label returns the localized literal for key. The Arabic literal is
	// always shaped; the English one never is.
	label := func(key string) string {
		return b.shaper.Shape(i18n.T(language, key), rtl)
	}
	// localize shapes caller-supplied text on the Arabic path only. The
	// English render path leaves text untouched even if it happens to
	// contain Arabic characters.
	localize := func(text string) string {
		return b.shaper.Shape(text, rtl)
	}

	doc.Blocks = append(doc.Blocks, HeaderBlock{
		CompanyName: localize(b.cfg.Company.Name),
		CompanyDesc: localize(b.cfg.Company.Desc),
		Address:     LabeledValue{Label: label("label.address"), Value: localize(b.cfg.Company.Address)},
		Contact: []LabeledValue{
			{Label: label("label.tel"), Value: b.cfg.Company.Tel},
			{Label: label("label.fax"), Value: b.cfg.Company.Fax},
			{Label: label("label.email"), Value: b.cfg.Company.Email},
			{Label: label("label.web"), Value: b.cfg.Company.Website},
		},
		LogoPath: b.cfg.LogoPath,
	})

	doc.Blocks = append(doc.Blocks, TitleBlock{Title: b.resolveTitle(rec.DocType, language)})

	doc.Blocks = append(doc.Blocks, ClientInfoBlock{Rows: [2][3]LabeledValue{
		{
			{Label: label("label.client"), Value: localize(rec.Client.Name)},
			{Label: label("label.date"), Value: date},
			{Label: label("label.ref"), Value: localize(rec.Client.Ref)},
		},
		{
			{Label: label("label.tel"), Value: rec.Client.Tel},
			{Label: label("label.country"), Value: localize(rec.Client.Country)},
			{Label: label("label.currency"), Value: rec.Client.Currency},
		},
	}})

	items := ItemsTableBlock{Headers: [6]string{
		label("table.no"),
		label("table.code"),
		label("table.description"),
		label("table.quantity"),
		label("table.unit_price"),
		label("table.total_price"),
	}}
	for idx, item := range rec.Items {
		items.Rows = append(items.Rows, [6]string{
			fmt.Sprintf("%d", idx+1),
			item.Code,
			localize(item.Description),
			item.Quantity,
			b.money(item.UnitPrice, language),
			b.money(item.LineTotal, language),
		})
	}
	doc.Blocks = append(doc.Blocks, items)

	doc.Blocks = append(doc.Blocks, TotalsBlock{
		Lines: []LabeledValue{
			{Label: label("totals.subtotal") + ":", Value: b.money(rec.Subtotal.StringFixed(2), language)},
			{Label: b.rateLabel("totals.tax", rec.Tax, rec.Subtotal, language), Value: b.money(rec.Tax.StringFixed(2), language)},
			{Label: b.rateLabel("totals.discount", rec.Discount, rec.Subtotal, language), Value: b.money(rec.Discount.StringFixed(2), language)},
		},
		NetLabel: label("totals.net") + ":",
		NetValue: b.money(rec.NetTotal.StringFixed(2), language),
	})

	if rec.Notes != "" {
		doc.Blocks = append(doc.Blocks, ParagraphBlock{Lines: []string{
			label("label.notes") + ": " + localize(rec.Notes),
		}})
	}

	doc.Blocks = append(doc.Blocks, SignatureBlock{
		Heading:   label("seller.title"),
		Company:   localize(b.cfg.Company.Name),
		Signature: LabeledValue{Label: label("seller.signature"), Value: localize(rec.SignerName)},
		Date:      LabeledValue{Label: label("label.date"), Value: date},
	})

	doc.Blocks = append(doc.Blocks, FooterBlock{Note: label("footer.note")})
	return doc
}

// resolveTitle applies the asymmetric title policy: the English path uses
// the document type verbatim (default "Invoice"); the Arabic path maps
// known types to their Arabic titles and shapes the result.
func (b *Builder) resolveTitle(docType, language string) string {
	if language != "ar" {
		if docType == "" {
			return i18n.T(language, "doc.invoice")
		}
		return docType
	}
	if key, ok := arabicDocTypes[docType]; ok {
		return b.shaper.Shape(i18n.T("ar", key), true)
	}
	if docType == "" {
		return b.shaper.Shape(i18n.T("ar", "doc.invoice"), true)
	}
	return b.shaper.Shape(docType, true)
}

// rateLabel derives the percentage shown next to tax/discount from the
// actual amounts instead of a fixed label. No percentage is shown when
// the subtotal is zero or the amount is zero.
func (b *Builder) rateLabel(key string, amount, subtotal decimal.Decimal, language string) string {
	base := i18n.T(language, key)
	if !amount.IsZero() && subtotal.IsPositive() {
		rate := amount.Div(subtotal).Mul(decimal.NewFromInt(100)).Round(1)
		base = fmt.Sprintf("%s (%s%%)", base, rate.String())
	}
	return b.shaper.Shape(base, language == "ar") + ":"
}

// money reformats a raw monetary value: pre-existing currency markers are
// stripped, parseable values get thousands separators and two decimals,
// unparsable values pass through unchanged. The currency token is a
// suffix in English and the shaped token appended after the number in
// Arabic; the mirrored placement is deliberate.
func (b *Builder) money(raw, language string) string {
	v := strings.TrimSpace(strings.NewReplacer("LE", "", "EGP", "").Replace(raw))
	if d, ok := parseAmount(v); ok {
		v = formatThousands(d)
	}
	token := i18n.T(language, "currency.token")
	if language == "ar" {
		return b.shaper.Shape(v, true) + " " + b.shaper.Shape(token, true)
	}
	return v + " " + token
}

// formatThousands renders 1234.5 as "1,234.50".
func formatThousands(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	var out strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteRune(',')
		}
		out.WriteRune(digit)
	}
	result := out.String() + "." + parts[1]
	if neg {
		result = "-" + result
	}
	return result
}
