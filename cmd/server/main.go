package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/MohamedMedhat18/HEO-System/internal/api"
	"github.com/MohamedMedhat18/HEO-System/internal/pdf"
	"github.com/MohamedMedhat18/HEO-System/internal/storage"
	"github.com/MohamedMedhat18/HEO-System/internal/web"
)

// pending invoices older than this are cancelled automatically
const staleInvoiceAge = 15 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	store, err := storage.InitializeStorage()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v\n", err)
	}
	defer store.Close()

	if err := api.EnsureDefaultAdmin(store); err != nil {
		log.Fatalf("Failed to seed admin account: %v\n", err)
	}

	renderCfg := pdf.DefaultConfig()
	caps := pdf.Detect(renderCfg)
	if !caps.PrimaryFont {
		log.Println("Warning: primary font not found, documents fall back to the Arabic or built-in face")
	}
	if !caps.Logo {
		log.Println("Warning: logo asset not found, documents render with a spacer")
	}

	go cancelStaleInvoices(store)

	handler := api.NewHandler(store, renderCfg, caps)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := web.ServeTemplate(w, "index.html"); err != nil {
			log.Printf("HTTP ERROR: Failed to serve index: %v\n", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on port %s\n", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Server error: %v\n", err)
	}
}

// cancelStaleInvoices sweeps once at startup and then daily.
func cancelStaleInvoices(store storage.Storage) {
	sweep := func() {
		cancelled, err := store.CancelStalePendingInvoices(staleInvoiceAge)
		if err != nil {
			log.Printf("ERROR: Failed to cancel stale invoices: %v\n", err)
			return
		}
		if cancelled > 0 {
			log.Printf("Cancelled %d stale pending invoices\n", cancelled)
		}
	}
	sweep()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		sweep()
	}
}
