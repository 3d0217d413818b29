package storage

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) Storage {
	t.Helper()
	store, err := InitializeJsonStore(SystemConfig{StorageURL: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJsonStoreClientLifecycle(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AddClient(Client{Name: "Cairo General Hospital", Country: "Egypt"})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if id != 1 {
		t.Errorf("first client id = %d, want 1", id)
	}

	client, err := store.GetClient(id)
	if err != nil {
		t.Fatalf("get client: %v", err)
	}
	if client.Currency != "EGP" {
		t.Errorf("default currency = %q, want EGP", client.Currency)
	}

	client.Phone = "+20100000000"
	if err := store.UpdateClient(id, client); err != nil {
		t.Fatalf("update client: %v", err)
	}
	if err := store.RemoveClient(id); err != nil {
		t.Fatalf("remove client: %v", err)
	}
	if _, err := store.GetClient(id); err == nil {
		t.Error("removed client still readable")
	}
}

func TestJsonStoreInvoiceIDsIncrement(t *testing.T) {
	store := newTestStore(t)
	for want := 1; want <= 3; want++ {
		id, err := store.AddInvoice(Invoice{ClientName: "Client"})
		if err != nil {
			t.Fatalf("add invoice: %v", err)
		}
		if id != want {
			t.Errorf("invoice id = %d, want %d", id, want)
		}
	}
}

func TestInvoiceRecalculate(t *testing.T) {
	invoice := Invoice{
		ClientName: "Client",
		Items: []InvoiceItem{
			{Description: "Monitor", Quantity: 2, Price: 50},
			{Description: "Sensor kit", Quantity: 1, Price: 75, Total: 75},
		},
		Tax:      31.5,
		Discount: 6.5,
		Total:    9999, // stale, must be recomputed
	}
	if err := invoice.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if invoice.Items[0].Total != 100 {
		t.Errorf("line total = %v, want 100", invoice.Items[0].Total)
	}
	if invoice.Subtotal != 175 {
		t.Errorf("subtotal = %v, want 175", invoice.Subtotal)
	}
	if invoice.Total != 200 {
		t.Errorf("total = %v, want 200", invoice.Total)
	}
	if invoice.Status != StatusPending {
		t.Errorf("default status = %q, want %q", invoice.Status, StatusPending)
	}
}

func TestCancelStalePendingInvoices(t *testing.T) {
	store := newTestStore(t)

	stale := Invoice{ClientName: "Old", CreatedAt: time.Now().AddDate(0, 0, -20)}
	fresh := Invoice{ClientName: "New"}
	paid := Invoice{ClientName: "Settled", Status: StatusPaid, CreatedAt: time.Now().AddDate(0, 0, -20)}
	staleID, err := store.AddInvoice(stale)
	if err != nil {
		t.Fatal(err)
	}
	freshID, err := store.AddInvoice(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddInvoice(paid); err != nil {
		t.Fatal(err)
	}

	cancelled, err := store.CancelStalePendingInvoices(15 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("cancel stale: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}

	got, _ := store.GetInvoice(staleID)
	if got.Status != StatusCancelled {
		t.Errorf("stale invoice status = %q, want %q", got.Status, StatusCancelled)
	}
	got, _ = store.GetInvoice(freshID)
	if got.Status != StatusPending {
		t.Errorf("fresh invoice status = %q, want %q", got.Status, StatusPending)
	}
}

func TestJsonStoreRejectsDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	if err := store.AddUser(User{Username: "admin", PasswordHash: "x"}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := store.AddUser(User{Username: "admin", PasswordHash: "y"}); err == nil {
		t.Error("duplicate username accepted")
	}
	count, err := store.CountUsers()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  double  spaces  ", "double spaces"},
		{"عرض سعر", "عرض سعر"},
		{"drop<script>", "drop script"},
		{"a/b (c) +20:1", "a/b (c) +20:1"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in); got != tc.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
