package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type rgb struct{ r, g, b int }

var (
	colorBlue      = rgb{24, 52, 117}   // #183475
	colorAccent    = rgb{56, 128, 250}  // #3880fa
	colorZebra     = rgb{243, 247, 253} // #f3f7fd
	colorBanner    = rgb{229, 238, 255} // #e5eeff
	colorSellerBG  = rgb{248, 250, 252} // #f8fafc
	colorHeadBG    = rgb{246, 249, 252} // #f6f9fc
	colorBoxLine   = rgb{194, 209, 227} // #c2d1e3
	colorGridLine  = rgb{182, 197, 227} // #b6c5e3
	colorWatermark = rgb{234, 242, 250} // #eaf2fa
)

// proportional item table column widths: #, code, description, quantity,
// unit price, total price
var itemColShares = [6]float64{0.07, 0.13, 0.35, 0.13, 0.15, 0.17}

// Engine lays a Document out onto paginated A4 pages and serializes it.
// It holds no per-call state; one Engine serves concurrent renders.
type Engine struct {
	cfg  RenderConfig
	caps Capabilities
}

func NewEngine(cfg RenderConfig, caps Capabilities) *Engine {
	return &Engine{cfg: cfg, caps: caps}
}

// Generate renders an invoice mapping into document bytes in the
// requested language. It is the package entry point and always returns
// bytes: any unrecoverable layout failure degrades to a plain-text
// encoding of the record instead of an error.
func Generate(record map[string]any, language string, cfg RenderConfig, caps Capabilities) []byte {
	rec := NormalizeRecord(record)
	doc := NewBuilder(cfg, caps).Build(rec, language)
	return NewEngine(cfg, caps).Render(doc)
}

// Filename returns the canonical invoice PDF filename.
func Filename(id, language string) string {
	return fmt.Sprintf("invoice_%s_%s_%s.pdf", id, time.Now().UTC().Format("20060102_150405"), language)
}

// Render serializes the document. The contract is "always returns
// bytes": engine errors and panics inside third-party layout primitives
// degrade to the plain-text fallback rather than propagating.
func (e *Engine) Render(doc Document) (out []byte) {
	if !e.caps.PDFEngine {
		return fallbackBytes(doc.Record)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PDF ERROR: render failed, serving plain-text fallback: %v\n", r)
			out = fallbackBytes(doc.Record)
		}
	}()

	p := gofpdf.New("P", "mm", "A4", "")
	family := e.registerFonts(p, doc.RTL)
	margin := e.cfg.PageMargin
	p.SetMargins(margin+2, margin+4, margin+2)
	p.SetAutoPageBreak(false, margin)
	p.SetHeaderFunc(func() {
		e.decoratePage(p, family)
	})
	p.AddPage()

	l := &pageLayout{pdf: p, eng: e, family: family, rtl: doc.RTL}
	for _, block := range doc.Blocks {
		l.draw(block)
	}

	if p.Err() {
		log.Printf("PDF ERROR: engine failure, serving plain-text fallback: %v\n", p.Error())
		return fallbackBytes(doc.Record)
	}
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		log.Printf("PDF ERROR: serialization failed, serving plain-text fallback: %v\n", err)
		return fallbackBytes(doc.Record)
	}
	return buf.Bytes()
}

// registerFonts applies the whole-document font policy: Roboto when both
// weights are on disk, else the Arabic-capable face for Arabic output,
// else the built-in Helvetica. Registration is per-Fpdf, so repeated
// renders never collide.
func (e *Engine) registerFonts(p *gofpdf.Fpdf, rtl bool) string {
	if e.caps.PrimaryFont {
		reg, errR := os.ReadFile(e.cfg.PrimaryFontPath)
		bold, errB := os.ReadFile(e.cfg.PrimaryFontBoldPath)
		if errR == nil && errB == nil {
			p.AddUTF8FontFromBytes("Roboto", "", reg)
			p.AddUTF8FontFromBytes("Roboto", "B", bold)
			return "Roboto"
		}
	}
	if rtl && e.caps.ArabicFont {
		if data, err := os.ReadFile(e.cfg.ArabicFontPath); err == nil {
			boldCopy := make([]byte, len(data))
			copy(boldCopy, data)
			p.AddUTF8FontFromBytes("Tajawal", "", data)
			p.AddUTF8FontFromBytes("Tajawal", "B", boldCopy)
			return "Tajawal"
		}
	}
	return "Helvetica"
}

// decoratePage draws the rounded outer border and the diagonal watermark.
// It runs as the page header callback, so first and subsequent pages are
// decorated identically.
func (e *Engine) decoratePage(p *gofpdf.Fpdf, family string) {
	w, h := p.GetPageSize()
	m := e.cfg.PageMargin - 4
	p.SetDrawColor(colorGridLine.r, colorGridLine.g, colorGridLine.b)
	p.SetLineWidth(0.7)
	p.RoundedRect(m, m, w-2*m, h-2*m, 5, "1234", "D")

	mark := e.cfg.Company.Watermark
	p.SetFont(family, "B", 92)
	p.SetTextColor(colorWatermark.r, colorWatermark.g, colorWatermark.b)
	p.TransformBegin()
	p.TransformRotate(17, w/2, h*0.62)
	p.Text(w/2-p.GetStringWidth(mark)/2, h*0.62, mark)
	p.TransformEnd()
	p.SetTextColor(0, 0, 0)
}

// pageLayout tracks the flow of one render call.
type pageLayout struct {
	pdf    *gofpdf.Fpdf
	eng    *Engine
	family string
	rtl    bool
}

func (l *pageLayout) left() float64 {
	left, _, _, _ := l.pdf.GetMargins()
	return left
}

func (l *pageLayout) contentWidth() float64 {
	w, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	return w - left - right
}

func (l *pageLayout) bottomLimit() float64 {
	_, h := l.pdf.GetPageSize()
	return h - l.eng.cfg.PageMargin - 4
}

// ensureSpace starts a fresh, decorated page when the next element would
// cross the printable area.
func (l *pageLayout) ensureSpace(height float64) {
	if l.pdf.GetY()+height > l.bottomLimit() {
		l.pdf.AddPage()
	}
}

func (l *pageLayout) draw(block Block) {
	switch b := block.(type) {
	case HeaderBlock:
		l.drawHeader(b)
	case TitleBlock:
		l.drawTitle(b)
	case ClientInfoBlock:
		l.drawClientInfo(b)
	case ItemsTableBlock:
		l.drawItemsTable(b)
	case TotalsBlock:
		l.drawTotals(b)
	case SignatureBlock:
		l.drawSignature(b)
	case FooterBlock:
		l.drawFooter(b)
	case ParagraphBlock:
		l.drawParagraph(b)
	}
}

func (l *pageLayout) drawHeader(b HeaderBlock) {
	p := l.pdf
	const boxH = 34.0
	x0, y0 := l.left(), p.GetY()

	p.SetFillColor(colorHeadBG.r, colorHeadBG.g, colorHeadBG.b)
	p.SetDrawColor(colorBoxLine.r, colorBoxLine.g, colorBoxLine.b)
	p.SetLineWidth(0.4)
	p.Rect(x0, y0, l.contentWidth(), boxH, "FD")

	logoW := l.drawLogo(x0+3, y0+4, 14)
	textX := x0 + logoW + 8

	p.SetTextColor(colorBlue.r, colorBlue.g, colorBlue.b)
	p.SetFont(l.family, "B", 12)
	p.SetXY(textX, y0+3)
	p.CellFormat(0, 6, b.CompanyName, "", 0, "L", false, 0, "")

	p.SetTextColor(51, 51, 51)
	p.SetFont(l.family, "", 9)
	p.SetXY(textX, y0+9.5)
	p.CellFormat(0, 5, b.CompanyDesc, "", 0, "L", false, 0, "")

	p.SetTextColor(34, 34, 34)
	p.SetFont(l.family, "", 8)
	p.SetXY(textX, y0+16)
	p.CellFormat(0, 4, b.Address.Label+": "+b.Address.Value, "", 0, "L", false, 0, "")

	if len(b.Contact) >= 4 {
		p.SetXY(textX, y0+21)
		p.CellFormat(0, 4, b.Contact[0].Label+": "+b.Contact[0].Value+"    "+b.Contact[1].Label+": "+b.Contact[1].Value, "", 0, "L", false, 0, "")
		p.SetXY(textX, y0+26)
		p.CellFormat(0, 4, b.Contact[2].Label+": "+b.Contact[2].Value+"    "+b.Contact[3].Label+": "+b.Contact[3].Value, "", 0, "L", false, 0, "")
	}
	p.SetTextColor(0, 0, 0)
	p.SetY(y0 + boxH + 6)
}

// drawLogo embeds the logo scaled to maxH, sizing the width from the
// image's aspect ratio when introspection is available and a fixed 2.5x
// ratio otherwise. A missing or unreadable asset leaves an equally sized
// spacer so the header proportions stay stable.
func (l *pageLayout) drawLogo(x, y, maxH float64) float64 {
	w := maxH * 2.5
	if !l.eng.caps.Logo {
		return w
	}
	data, err := os.ReadFile(l.eng.cfg.LogoPath)
	if err != nil {
		return w
	}
	if l.eng.caps.ImageMeta {
		meta, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil || meta.Height <= 0 {
			return w
		}
		w = maxH * float64(meta.Width) / float64(meta.Height)
	}
	imgType := strings.TrimPrefix(strings.ToUpper(filepath.Ext(l.eng.cfg.LogoPath)), ".")
	if imgType == "JPEG" {
		imgType = "JPG"
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}
	l.pdf.RegisterImageOptionsReader("company-logo", opts, bytes.NewReader(data))
	l.pdf.ImageOptions("company-logo", x, y, w, maxH, false, opts, 0, "")
	return w
}

func (l *pageLayout) drawTitle(b TitleBlock) {
	p := l.pdf
	const bandH = 13.0
	l.ensureSpace(bandH + 4)
	x0, y0 := l.left(), p.GetY()

	p.SetFillColor(colorBanner.r, colorBanner.g, colorBanner.b)
	p.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	p.SetLineWidth(0.5)
	p.Rect(x0, y0, l.contentWidth(), bandH, "FD")

	p.SetTextColor(colorBlue.r, colorBlue.g, colorBlue.b)
	p.SetFont(l.family, "B", 18)
	p.SetXY(x0, y0+2)
	p.CellFormat(l.contentWidth(), 9, b.Title, "", 0, "C", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetY(y0 + bandH + 4)
}

func (l *pageLayout) drawClientInfo(b ClientInfoBlock) {
	p := l.pdf
	const rowH = 9.0
	l.ensureSpace(2*rowH + 6)
	x0, y0 := l.left(), p.GetY()
	colW := l.contentWidth() / 3

	p.SetDrawColor(colorBoxLine.r, colorBoxLine.g, colorBoxLine.b)
	p.SetLineWidth(0.3)
	align := "L"
	if l.rtl {
		align = "R"
	}
	for r, row := range b.Rows {
		x := x0
		y := y0 + float64(r)*rowH
		for _, cell := range row {
			p.SetXY(x, y)
			p.CellFormat(colW, rowH, "", "1", 0, "", false, 0, "")
			p.SetXY(x+3, y)
			p.SetFont(l.family, "B", 9)
			labelW := p.GetStringWidth(cell.Label+": ") + 1
			p.CellFormat(labelW, rowH, cell.Label+":", "", 0, align, false, 0, "")
			p.SetFont(l.family, "", 9)
			p.CellFormat(colW-labelW-4, rowH, cell.Value, "", 0, align, false, 0, "")
			x += colW
		}
	}
	p.SetY(y0 + 2*rowH + 6)
}

func (l *pageLayout) drawItemsTable(b ItemsTableBlock) {
	p := l.pdf
	contentW := l.contentWidth()
	var colW [6]float64
	for i, share := range itemColShares {
		colW[i] = contentW * share
	}

	l.ensureSpace(30)
	l.drawItemsHeader(b.Headers, colW)

	aligns := [6]string{"C", "C", "L", "C", "R", "R"}
	if l.rtl {
		aligns[2] = "R"
	}
	p.SetLineWidth(0.2)
	for i, row := range b.Rows {
		p.SetFont(l.family, "", 9)
		lines := p.SplitLines([]byte(row[2]), colW[2]-4)
		rowH := 7.0
		if n := float64(len(lines)); n > 1 {
			rowH = n*4.5 + 2.5
		}
		// a row never splits across pages
		if p.GetY()+rowH > l.bottomLimit() {
			p.AddPage()
			l.drawItemsHeader(b.Headers, colW)
			p.SetFont(l.family, "", 9)
		}
		fill := i%2 == 1
		p.SetFillColor(colorZebra.r, colorZebra.g, colorZebra.b)
		p.SetDrawColor(colorGridLine.r, colorGridLine.g, colorGridLine.b)
		x := l.left()
		y := p.GetY()
		for c := 0; c < 6; c++ {
			p.SetXY(x, y)
			p.CellFormat(colW[c], rowH, "", "1", 0, "", fill, 0, "")
			if c == 2 {
				p.SetXY(x+2, y+1.3)
				p.MultiCell(colW[c]-4, 4.5, row[c], "", aligns[c], false)
			} else {
				p.SetXY(x, y)
				p.CellFormat(colW[c], rowH, row[c], "", 0, aligns[c], false, 0, "")
			}
			x += colW[c]
		}
		p.SetY(y + rowH)
	}
	p.SetY(p.GetY() + 6)
}

func (l *pageLayout) drawItemsHeader(headers [6]string, colW [6]float64) {
	p := l.pdf
	const headH = 8.0
	p.SetFillColor(colorBlue.r, colorBlue.g, colorBlue.b)
	p.SetTextColor(255, 255, 255)
	p.SetDrawColor(colorGridLine.r, colorGridLine.g, colorGridLine.b)
	p.SetLineWidth(0.2)
	p.SetFont(l.family, "B", 10)
	x := l.left()
	y := p.GetY()
	for c := 0; c < 6; c++ {
		p.SetXY(x, y)
		p.CellFormat(colW[c], headH, headers[c], "1", 0, "C", true, 0, "")
		x += colW[c]
	}
	p.SetTextColor(0, 0, 0)
	p.SetY(y + headH)
}

func (l *pageLayout) drawTotals(b TotalsBlock) {
	p := l.pdf
	const lineH = 8.0
	const netH = 12.0
	needed := float64(len(b.Lines))*lineH + netH + 8
	l.ensureSpace(needed)

	contentW := l.contentWidth()
	labelW := contentW * 0.55
	valueW := contentW * 0.45
	x0 := l.left()
	y := p.GetY()

	p.SetDrawColor(colorBoxLine.r, colorBoxLine.g, colorBoxLine.b)
	p.SetLineWidth(0.3)
	for _, line := range b.Lines {
		p.SetXY(x0, y)
		p.SetFont(l.family, "", 10)
		p.CellFormat(labelW, lineH, " "+line.Label, "1", 0, "L", false, 0, "")
		p.CellFormat(valueW, lineH, line.Value+" ", "1", 0, "R", false, 0, "")
		y += lineH
	}

	y += 3
	p.SetXY(x0, y)
	p.SetFillColor(colorBanner.r, colorBanner.g, colorBanner.b)
	p.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	p.SetLineWidth(0.5)
	p.SetTextColor(colorAccent.r, colorAccent.g, colorAccent.b)
	p.SetFont(l.family, "B", 13)
	p.CellFormat(labelW, netH, " "+b.NetLabel, "1", 0, "L", true, 0, "")
	p.CellFormat(valueW, netH, b.NetValue+" ", "1", 0, "R", true, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetY(y + netH + 6)
}

func (l *pageLayout) drawSignature(b SignatureBlock) {
	p := l.pdf
	const boxH = 27.0
	l.ensureSpace(boxH + 4)
	x0, y0 := l.left(), p.GetY()
	boxW := l.contentWidth() - 14

	p.SetFillColor(colorSellerBG.r, colorSellerBG.g, colorSellerBG.b)
	p.SetDrawColor(colorGridLine.r, colorGridLine.g, colorGridLine.b)
	p.SetLineWidth(0.4)
	p.Rect(x0, y0, boxW, boxH, "FD")

	p.SetXY(x0+5, y0+2)
	p.SetTextColor(colorBlue.r, colorBlue.g, colorBlue.b)
	p.SetFont(l.family, "B", 10)
	p.CellFormat(0, 6, b.Heading, "", 0, "L", false, 0, "")

	p.SetTextColor(34, 34, 34)
	p.SetFont(l.family, "", 10)
	p.SetXY(x0+5, y0+8)
	p.CellFormat(0, 6, b.Company, "", 0, "L", false, 0, "")
	p.SetXY(x0+5, y0+14)
	p.CellFormat(0, 6, b.Signature.Label+": "+b.Signature.Value, "", 0, "L", false, 0, "")
	p.SetXY(x0+5, y0+20)
	p.CellFormat(0, 6, b.Date.Label+": "+b.Date.Value, "", 0, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetY(y0 + boxH + 5)
}

func (l *pageLayout) drawFooter(b FooterBlock) {
	p := l.pdf
	l.ensureSpace(8)
	p.SetFont(l.family, "", 8)
	p.SetTextColor(187, 187, 187)
	p.SetX(l.left())
	p.CellFormat(l.contentWidth(), 5, b.Note, "", 0, "C", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetY(p.GetY() + 6)
}

func (l *pageLayout) drawParagraph(b ParagraphBlock) {
	p := l.pdf
	p.SetFont(l.family, "", 9)
	for _, line := range b.Lines {
		l.ensureSpace(6)
		p.SetX(l.left())
		p.MultiCell(l.contentWidth(), 5, line, "", "L", false)
	}
	p.SetY(p.GetY() + 3)
}

// fallbackBytes is the last-resort plain-text encoding of the record.
// It is what callers receive when the layout engine is unavailable or
// fails outright; degraded but human-readable beats a failed request.
func fallbackBytes(rec Record) []byte {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", rec))
	}
	return append([]byte("Invoice (fallback)\n\n"), payload...)
}
