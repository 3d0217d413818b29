package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MohamedMedhat18/HEO-System/internal/pdf"
	"github.com/MohamedMedhat18/HEO-System/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD", "letmein")

	store, err := storage.InitializeJsonStore(storage.SystemConfig{StorageURL: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := EnsureDefaultAdmin(store); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	renderCfg := pdf.DefaultConfig()
	handler := NewHandler(store, renderCfg, pdf.Detect(renderCfg))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, login(t, server)
}

func login(t *testing.T, server *httptest.Server) string {
	t.Helper()
	body := strings.NewReader(`{"username":"admin","password":"letmein"}`)
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", body)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out["token"] == "" {
		t.Fatal("empty token")
	}
	return out["token"]
}

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestLoginRejectsBadPassword(t *testing.T) {
	server, _ := newTestServer(t)
	body := strings.NewReader(`{"username":"admin","password":"wrong"}`)
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestEndpointsRequireToken(t *testing.T) {
	server, _ := newTestServer(t)
	for _, path := range []string{"/api/clients", "/api/invoices", "/api/stats"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestClientCRUDOverHTTP(t *testing.T) {
	server, token := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/clients", token, storage.Client{Name: "Cairo General Hospital", Country: "Egypt"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created storage.Client
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.ID == 0 {
		t.Fatal("created client has no id")
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/clients", token, nil)
	var clients []storage.Client
	json.NewDecoder(resp.Body).Decode(&clients)
	resp.Body.Close()
	if len(clients) != 1 {
		t.Fatalf("client list = %d entries, want 1", len(clients))
	}

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/clients?id=1", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", resp.StatusCode)
	}
}

func TestInvoiceCreateAndDocumentDownload(t *testing.T) {
	server, token := newTestServer(t)

	invoice := storage.Invoice{
		ClientName: "Cairo General Hospital",
		Items: []storage.InvoiceItem{
			{Code: "PM-100", Description: "Patient monitor", Quantity: 2, Price: 50},
			{Code: "SP-200", Description: "Spare sensor kit", Quantity: 1, Price: 75},
		},
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/invoices", token, invoice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created storage.Invoice
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.Total != 175 {
		t.Errorf("created total = %v, want 175", created.Total)
	}
	if created.Status != storage.StatusPending {
		t.Errorf("created status = %q, want %q", created.Status, storage.StatusPending)
	}
	if created.CreatedAt.IsZero() {
		t.Error("created invoice has zero timestamp")
	}

	for _, lang := range []string{"en", "ar"} {
		resp = doJSON(t, http.MethodGet, server.URL+"/api/invoices/pdf?id=1&lang="+lang, token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("pdf status (%s) = %d, want 200", lang, resp.StatusCode)
		}
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if buf.Len() == 0 {
			t.Errorf("empty document body (%s)", lang)
		}
		disposition := resp.Header.Get("Content-Disposition")
		if !strings.Contains(disposition, "invoice_1_") {
			t.Errorf("disposition = %q, want invoice_1_ filename", disposition)
		}
	}
}

func TestInvoiceStatusUpdate(t *testing.T) {
	server, token := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/invoices", token, storage.Invoice{ClientName: "Client"})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, server.URL+"/api/invoices/status?id=1", token, map[string]string{"status": "Paid"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, server.URL+"/api/invoices/status?id=1", token, map[string]string{"status": "Shipped"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status update = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/stats", token, nil)
	var stats statsResponse
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats.PaidInvoices != 1 || stats.TotalInvoices != 1 {
		t.Errorf("stats = %+v, want 1 paid of 1", stats)
	}
}

func TestSalesReportPDF(t *testing.T) {
	server, token := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/invoices", token, storage.Invoice{
		ClientName: "Client",
		AgentName:  "Mohamed",
		Items:      []storage.InvoiceItem{{Description: "Monitor", Quantity: 1, Price: 3500}},
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/sales?status=Pending", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d, want 200", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("report body is not a PDF")
	}
}

func TestSalesReportRejectsArabic(t *testing.T) {
	server, token := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/reports/sales?lang=ar", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("report status = %d, want 400", resp.StatusCode)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234.5, "1,234.50"},
		{175, "175.00"},
		{1000000, "1,000,000.00"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.in); got != tc.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
