package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"

	"github.com/MohamedMedhat18/HEO-System/internal/i18n"
	"github.com/MohamedMedhat18/HEO-System/internal/pdf"
	"github.com/MohamedMedhat18/HEO-System/internal/storage"
)

// Handler carries the request-scoped dependencies: the storage backend
// and the render configuration probed once at startup.
type Handler struct {
	storage   storage.Storage
	renderCfg pdf.RenderConfig
	caps      pdf.Capabilities
	jwtSecret []byte
}

func NewHandler(s storage.Storage, renderCfg pdf.RenderConfig, caps pdf.Capabilities) *Handler {
	return &Handler{
		storage:   s,
		renderCfg: renderCfg,
		caps:      caps,
		jwtSecret: jwtSecretFromEnv(),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("API ERROR: Failed to encode JSON response: %v\n", err)
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/login", h.Login)
	mux.HandleFunc("/api/auth/register", h.RequireAuth(h.Register))
	mux.HandleFunc("/api/clients", h.RequireAuth(h.HandleClients))
	mux.HandleFunc("/api/products", h.RequireAuth(h.HandleProducts))
	mux.HandleFunc("/api/employees", h.RequireAuth(h.HandleEmployees))
	mux.HandleFunc("/api/invoices", h.RequireAuth(h.HandleInvoices))
	mux.HandleFunc("/api/invoices/status", h.RequireAuth(h.UpdateInvoiceStatus))
	mux.HandleFunc("/api/invoices/pdf", h.RequireAuth(h.GenerateInvoicePDF))
	mux.HandleFunc("/api/reports/sales", h.RequireAuth(h.GenerateReportPDF))
	mux.HandleFunc("/api/stats", h.RequireAuth(h.GetStats))
}

// idParam reads the numeric id query parameter; 0 means absent.
func idParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id parameter: %s", raw)
	}
	return id, nil
}

func (h *Handler) HandleClients(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	switch r.Method {
	case http.MethodGet:
		if id != 0 {
			client, err := h.storage.GetClient(id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, client)
			return
		}
		clients, err := h.storage.GetAllClients()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve clients"})
			log.Printf("API ERROR: Failed to retrieve clients: %v\n", err)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	case http.MethodPost:
		var client storage.Client
		if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		newID, err := h.storage.AddClient(client)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		client.ID = newID
		writeJSON(w, http.StatusCreated, client)
		log.Printf("HTTP: Added client %d\n", newID)
	case http.MethodPut:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		var client storage.Client
		if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		if err := h.storage.UpdateClient(id, client); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		log.Printf("HTTP: Updated client %d\n", id)
	case http.MethodDelete:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		if err := h.storage.RemoveClient(id); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		log.Printf("HTTP: Deleted client %d\n", id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	switch r.Method {
	case http.MethodGet:
		if id != 0 {
			product, err := h.storage.GetProduct(id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, product)
			return
		}
		products, err := h.storage.GetAllProducts()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve products"})
			log.Printf("API ERROR: Failed to retrieve products: %v\n", err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var product storage.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		newID, err := h.storage.AddProduct(product)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		product.ID = newID
		writeJSON(w, http.StatusCreated, product)
		log.Printf("HTTP: Added product %d\n", newID)
	case http.MethodPut:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		var product storage.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		if err := h.storage.UpdateProduct(id, product); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		log.Printf("HTTP: Updated product %d\n", id)
	case http.MethodDelete:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		if err := h.storage.RemoveProduct(id); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		log.Printf("HTTP: Deleted product %d\n", id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) HandleEmployees(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	switch r.Method {
	case http.MethodGet:
		if id != 0 {
			employee, err := h.storage.GetEmployee(id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, employee)
			return
		}
		employees, err := h.storage.GetAllEmployees()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve employees"})
			log.Printf("API ERROR: Failed to retrieve employees: %v\n", err)
			return
		}
		writeJSON(w, http.StatusOK, employees)
	case http.MethodPost:
		var employee storage.Employee
		if err := json.NewDecoder(r.Body).Decode(&employee); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		newID, err := h.storage.AddEmployee(employee)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		employee.ID = newID
		writeJSON(w, http.StatusCreated, employee)
		log.Printf("HTTP: Added employee %d\n", newID)
	case http.MethodPut:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		var employee storage.Employee
		if err := json.NewDecoder(r.Body).Decode(&employee); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		if err := h.storage.UpdateEmployee(id, employee); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		log.Printf("HTTP: Updated employee %d\n", id)
	case http.MethodDelete:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		if err := h.storage.RemoveEmployee(id); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		log.Printf("HTTP: Deleted employee %d\n", id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) HandleInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	switch r.Method {
	case http.MethodGet:
		if id != 0 {
			invoice, err := h.storage.GetInvoice(id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, invoice)
			return
		}
		invoices, err := h.storage.GetAllInvoices()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve invoices"})
			log.Printf("API ERROR: Failed to retrieve invoices: %v\n", err)
			return
		}
		writeJSON(w, http.StatusOK, invoices)
	case http.MethodPost:
		var invoice storage.Invoice
		if err := json.NewDecoder(r.Body).Decode(&invoice); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		// resolve the client name from the client record when omitted
		if invoice.ClientName == "" && invoice.ClientID != 0 {
			if client, err := h.storage.GetClient(invoice.ClientID); err == nil {
				invoice.ClientName = client.Name
			}
		}
		newID, err := h.storage.AddInvoice(invoice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		// the store validates and recalculates totals on insert, so
		// fetch the stored row back rather than echoing the request
		created, err := h.storage.GetInvoice(newID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve created invoice"})
			log.Printf("API ERROR: Failed to retrieve invoice %d after insert: %v\n", newID, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		log.Printf("HTTP: Added invoice %d for %s\n", newID, created.ClientName)
	case http.MethodPut:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		var invoice storage.Invoice
		if err := json.NewDecoder(r.Body).Decode(&invoice); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
			return
		}
		if err := h.storage.UpdateInvoice(id, invoice); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
		log.Printf("HTTP: Updated invoice %d\n", id)
	case http.MethodDelete:
		if id == 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing id parameter"})
			return
		}
		if err := h.storage.RemoveInvoice(id); err != nil {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		log.Printf("HTTP: Deleted invoice %d\n", id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	}
}

func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	id, err := idParam(r)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing or invalid id parameter"})
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if !storage.ValidStatus(body.Status) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid status: %s", body.Status)})
		return
	}
	if err := h.storage.UpdateInvoiceStatus(id, body.Status); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
	log.Printf("HTTP: Invoice %d marked %s\n", id, body.Status)
}

// GenerateInvoicePDF streams the rendered invoice. Rendering never
// fails outright; when the layout engine degrades, the plain-text
// encoding is served with a matching content type.
func (h *Handler) GenerateInvoicePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPatch {
		h.updateInvoiceLanguage(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	id, err := idParam(r)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing or invalid id parameter"})
		return
	}
	invoice, err := h.storage.GetInvoice(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	language := r.URL.Query().Get("lang")
	if language == "" {
		language = invoice.Language
	}
	if language != "ar" {
		language = "en"
	}

	record := invoiceToRecord(invoice, h.storage)
	out := pdf.Generate(record, language, h.renderCfg, h.caps)

	filename := pdf.Filename(strconv.Itoa(id), language)
	if bytes.HasPrefix(out, []byte("%PDF")) {
		w.Header().Set("Content-Type", "application/pdf")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		filename = filename[:len(filename)-len(".pdf")] + ".txt"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(out)
	log.Printf("HTTP: Generated %s invoice document for ID %d\n", language, id)
}

// updateInvoiceLanguage stores the preferred document language for an
// invoice so later downloads default to it.
func (h *Handler) updateInvoiceLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing or invalid id parameter"})
		return
	}
	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if !slices.Contains(i18n.SupportedLanguages, body.Language) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Unsupported language: %s", body.Language)})
		return
	}
	invoice, err := h.storage.GetInvoice(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	invoice.Language = body.Language
	if err := h.storage.UpdateInvoice(id, invoice); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": body.Language})
	log.Printf("HTTP: Invoice %d document language set to %s\n", id, body.Language)
}

// invoiceToRecord flattens a stored invoice into the mapping shape the
// document pipeline consumes.
func invoiceToRecord(invoice storage.Invoice, store storage.Storage) map[string]any {
	record := map[string]any{
		"id":           invoice.ID,
		"client_name":  invoice.ClientName,
		"invoice_type": invoice.InvoiceType,
		"date":         invoice.CreatedAt.Format("2006-01-02"),
		"subtotal":     invoice.Subtotal,
		"tax":          invoice.Tax,
		"discount":     invoice.Discount,
		"currency":     invoice.Currency,
		"agent_name":   invoice.AgentName,
		"notes":        invoice.Notes,
	}
	if invoice.ClientID != 0 {
		record["client_ref"] = strconv.Itoa(invoice.ClientID)
		if client, err := store.GetClient(invoice.ClientID); err == nil {
			record["client_phone"] = client.Phone
			record["client_country"] = client.Country
		}
	}
	var items []any
	for _, item := range invoice.Items {
		items = append(items, map[string]any{
			"code":        item.Code,
			"description": item.Description,
			"quantity":    item.Quantity,
			"price":       item.Price,
			"total":       item.Total,
		})
	}
	record["items"] = items
	return record
}

type statsResponse struct {
	TotalInvoices     int     `json:"total_invoices"`
	PendingInvoices   int     `json:"pending_invoices"`
	PaidInvoices      int     `json:"paid_invoices"`
	CancelledInvoices int     `json:"cancelled_invoices"`
	TotalRevenue      float64 `json:"total_revenue"`
	Clients           int     `json:"clients"`
	Products          int     `json:"products"`
	Employees         int     `json:"employees"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	invoices, err := h.storage.GetAllInvoices()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve invoices"})
		log.Printf("API ERROR: Failed to retrieve invoices for stats: %v\n", err)
		return
	}
	stats := statsResponse{TotalInvoices: len(invoices)}
	for _, invoice := range invoices {
		switch invoice.Status {
		case storage.StatusPending:
			stats.PendingInvoices++
		case storage.StatusPaid:
			stats.PaidInvoices++
			stats.TotalRevenue += invoice.Total
		case storage.StatusCancelled:
			stats.CancelledInvoices++
		}
	}
	if clients, err := h.storage.GetAllClients(); err == nil {
		stats.Clients = len(clients)
	}
	if products, err := h.storage.GetAllProducts(); err == nil {
		stats.Products = len(products)
	}
	if employees, err := h.storage.GetAllEmployees(); err == nil {
		stats.Employees = len(employees)
	}
	writeJSON(w, http.StatusOK, stats)
}
