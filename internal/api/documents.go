package api

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/MohamedMedhat18/HEO-System/internal/i18n"
	"github.com/MohamedMedhat18/HEO-System/internal/pdf"
	"github.com/MohamedMedhat18/HEO-System/internal/storage"
)

// formatAmount formats an amount with thousand separators and two decimals
func formatAmount(amount float64) string {
	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	intPart := parts[0]
	var result strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + parts[1]
}

// addLetterheadHeader adds the company letterhead to a report document
func addLetterheadHeader(m core.Maroto, renderCfg pdf.RenderConfig) {
	logoBytes, err := os.ReadFile(renderCfg.LogoPath)
	if err != nil {
		log.Printf("Warning: Failed to load letterhead logo: %v\n", err)
	}

	if logoBytes != nil {
		m.AddRow(22,
			col.New(12).Add(
				image.NewFromBytes(logoBytes, extension.Png, props.Rect{
					Center:  true,
					Percent: 100,
				}),
			),
		)
		m.AddRow(2)
	}

	m.AddRow(7,
		text.NewCol(12, renderCfg.Company.Name,
			props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
	)
	m.AddRow(6,
		text.NewCol(12, renderCfg.Company.Address,
			props.Text{
				Size:  8,
				Align: align.Center,
			}),
	)

	m.AddRow(5,
		line.NewCol(12),
	)
	m.AddRow(3)
}

// addLetterheadFooter registers the company footer at the bottom of each page
func addLetterheadFooter(m core.Maroto, renderCfg pdf.RenderConfig, language string) {
	generatedLabel := i18n.T(language, "report.generated_on")
	currentTime := time.Now().Format("2006-01-02 15:04")

	m.RegisterFooter(
		row.New(5).Add(
			col.New(12).Add(
				line.New(),
			),
		),
		row.New(8).Add(
			text.NewCol(12, renderCfg.Company.Email+"  |  "+renderCfg.Company.Website,
				props.Text{
					Size:  8,
					Align: align.Center,
				}),
		),
		row.New(8).Add(
			text.NewCol(12, generatedLabel+": "+currentTime,
				props.Text{
					Size:  8,
					Align: align.Center,
				}),
		),
	)
}

// GenerateReportPDF generates a sales report covering stored invoices,
// optionally filtered by status and month.
func (h *Handler) GenerateReportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !storage.ValidStatus(status) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid status parameter. Must be 'Pending', 'Paid' or 'Cancelled'"})
		return
	}
	// Report tables use the engine's builtin Latin font, which cannot
	// display Arabic script. Invoices cover the Arabic output path.
	language := r.URL.Query().Get("lang")
	if language == "" {
		language = "en"
	}
	if language != "en" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Reports are only available in English. Use the invoice endpoint for Arabic documents"})
		return
	}
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")

	invoices, err := h.storage.GetAllInvoices()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve invoices"})
		log.Printf("API ERROR: Failed to retrieve invoices for report generation: %v\n", err)
		return
	}

	var filtered []storage.Invoice
	for _, invoice := range invoices {
		if status != "" && invoice.Status != status {
			continue
		}
		filtered = append(filtered, invoice)
	}

	// Filter by month if year/month provided
	if yearStr != "" && monthStr != "" {
		var year, month int
		fmt.Sscanf(yearStr, "%d", &year)
		fmt.Sscanf(monthStr, "%d", &month)

		startTime := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		endTime := time.Date(year, time.Month(month+1), 0, 23, 59, 59, 0, time.UTC)

		var inRange []storage.Invoice
		for _, invoice := range filtered {
			if !invoice.CreatedAt.Before(startTime) && !invoice.CreatedAt.After(endTime) {
				inRange = append(inRange, invoice)
			}
		}
		filtered = inRange
	}

	pdfBytes, err := buildSalesReportPDF(filtered, status, language, h.renderCfg)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate PDF"})
		log.Printf("API ERROR: Failed to generate sales report PDF: %v\n", err)
		return
	}

	filename := "sales-report.pdf"
	if status != "" {
		filename = fmt.Sprintf("sales-report-%s.pdf", strings.ToLower(status))
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(pdfBytes)

	log.Printf("HTTP: Generated sales report PDF (%d invoices)\n", len(filtered))
}

// buildSalesReportPDF builds a PDF document containing a table of invoices
func buildSalesReportPDF(invoices []storage.Invoice, status, language string, renderCfg pdf.RenderConfig) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Vertical).
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		WithBottomMargin(10).
		Build()

	m := maroto.New(cfg)

	titleLabel := i18n.T(language, "report.title")
	invoiceNoLabel := i18n.T(language, "report.invoice_no")
	clientLabel := i18n.T(language, "report.client")
	agentLabel := i18n.T(language, "report.agent")
	dateLabel := i18n.T(language, "label.date")
	statusLabel := i18n.T(language, "report.status")
	totalLabel := i18n.T(language, "report.total")

	addLetterheadHeader(m, renderCfg)
	addLetterheadFooter(m, renderCfg, language)

	m.AddRow(12,
		text.NewCol(12, titleLabel,
			props.Text{
				Top:   3,
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
	)

	subtitle := fmt.Sprintf("%d %s", len(invoices), i18n.T(language, "doc.invoice"))
	if status != "" {
		subtitle = fmt.Sprintf("%s - %s", status, subtitle)
	}
	m.AddRow(10,
		text.NewCol(12, subtitle,
			props.Text{
				Size:  11,
				Align: align.Center,
			}),
	)

	m.AddRow(5)

	// Table header
	m.AddRow(8,
		text.NewCol(1, invoiceNoLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		text.NewCol(3, clientLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		text.NewCol(2, agentLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		text.NewCol(2, dateLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		text.NewCol(2, statusLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		text.NewCol(2, totalLabel,
			props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
	)

	m.AddRow(2,
		line.NewCol(12),
	)

	var total float64
	for _, invoice := range invoices {
		total += invoice.Total

		m.AddRow(7,
			text.NewCol(1, fmt.Sprintf("%d", invoice.ID),
				props.Text{
					Size:  9,
					Align: align.Left,
				}),
			text.NewCol(3, invoice.ClientName,
				props.Text{
					Size:  9,
					Align: align.Left,
				}),
			text.NewCol(2, invoice.AgentName,
				props.Text{
					Size:  9,
					Align: align.Left,
				}),
			text.NewCol(2, invoice.CreatedAt.Format("2006-01-02"),
				props.Text{
					Size:  9,
					Align: align.Left,
				}),
			text.NewCol(2, invoice.Status,
				props.Text{
					Size:  9,
					Align: align.Left,
				}),
			text.NewCol(2, formatAmount(invoice.Total)+" LE",
				props.Text{
					Size:  9,
					Align: align.Right,
				}),
		)
	}

	m.AddRow(2,
		line.NewCol(12),
	)

	m.AddRow(10,
		text.NewCol(9, totalLabel+":",
			props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
		text.NewCol(3, formatAmount(total)+" LE",
			props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return doc.GetBytes(), nil
}
