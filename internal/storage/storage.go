package storage

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Storage interface for all storage types
type Storage interface {
	Close() error

	// Users
	GetUserByUsername(username string) (User, error)
	AddUser(user User) error
	CountUsers() (int, error)

	// Clients
	GetAllClients() ([]Client, error)
	GetClient(id int) (Client, error)
	AddClient(client Client) (int, error)
	UpdateClient(id int, client Client) error
	RemoveClient(id int) error

	// Products
	GetAllProducts() ([]Product, error)
	GetProduct(id int) (Product, error)
	AddProduct(product Product) (int, error)
	UpdateProduct(id int, product Product) error
	RemoveProduct(id int) error

	// Invoices
	GetAllInvoices() ([]Invoice, error)
	GetInvoice(id int) (Invoice, error)
	AddInvoice(invoice Invoice) (int, error)
	UpdateInvoice(id int, invoice Invoice) error
	UpdateInvoiceStatus(id int, status string) error
	RemoveInvoice(id int) error
	CancelStalePendingInvoices(olderThan time.Duration) (int, error)

	// Employees
	GetAllEmployees() ([]Employee, error)
	GetEmployee(id int) (Employee, error)
	AddEmployee(employee Employee) (int, error)
	UpdateEmployee(id int, employee Employee) error
	RemoveEmployee(id int) error
}

type BackendType string

const (
	BackendTypeJSON     BackendType = "json"
	BackendTypePostgres BackendType = "postgres"
)

// config for the storage backend
type SystemConfig struct {
	StorageURL  string
	StorageType BackendType
	StorageUser string
	StoragePass string
	StorageSSL  string
}

// account able to sign in to the office system
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Client struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	Currency  string    `json:"currency"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type Employee struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Phone     string    `json:"phone"`
	Salary    float64   `json:"salary"`
	CreatedAt time.Time `json:"created_at"`
}

// one invoice row; stored with the invoice, not as its own table
type InvoiceItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type Invoice struct {
	ID          int           `json:"id"`
	ClientID    int           `json:"client_id"`
	ClientName  string        `json:"client_name"`
	Items       []InvoiceItem `json:"items"`
	Subtotal    float64       `json:"subtotal"`
	Tax         float64       `json:"tax"`
	Discount    float64       `json:"discount"`
	Total       float64       `json:"total"`
	Status      string        `json:"status"`
	Currency    string        `json:"currency"`
	InvoiceType string        `json:"invoice_type"`
	Language    string        `json:"language"`
	AgentName   string        `json:"agent_name"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
}

const (
	StatusPending   = "Pending"
	StatusPaid      = "Paid"
	StatusCancelled = "Cancelled"
)

var InvoiceStatuses = []string{StatusPending, StatusPaid, StatusCancelled}

var InvoiceTypes = []string{
	"Invoice",
	"Quotation Invoice",
	"Commercial Invoice",
	"Proforma Invoice",
}

func ValidStatus(status string) bool {
	return slices.Contains(InvoiceStatuses, status)
}

func (c *SystemConfig) SetStorageConfig() {
	c.StorageType = backendTypeFromEnv(os.Getenv("STORAGE_TYPE"))
	c.StorageURL = backendURLFromEnv(os.Getenv("STORAGE_URL"))
	c.StorageSSL = backendSSLFromEnv(os.Getenv("STORAGE_SSL"))
	c.StorageUser = os.Getenv("STORAGE_USER")
	c.StoragePass = os.Getenv("STORAGE_PASS")
}

func backendTypeFromEnv(env string) BackendType {
	switch env {
	case "json":
		return BackendTypeJSON
	case "postgres":
		return BackendTypePostgres
	default:
		return BackendTypeJSON
	}
}

func backendURLFromEnv(env string) string {
	if env == "" {
		return "data"
	}
	return env
}

func backendSSLFromEnv(env string) string {
	switch env {
	case "disable", "require", "verify-full", "verify-ca":
		return env
	default:
		return "disable"
	}
}

// initializes the storage backend
func InitializeStorage() (Storage, error) {
	baseConfig := SystemConfig{}
	baseConfig.SetStorageConfig()
	switch baseConfig.StorageType {
	case BackendTypeJSON:
		return InitializeJsonStore(baseConfig)
	case BackendTypePostgres:
		return InitializePostgresStore(baseConfig)
	}
	return nil, fmt.Errorf("invalid data store: %s", baseConfig.StorageType)
}

var REInvalidChars *regexp.Regexp = regexp.MustCompile(`[^\p{L}\p{N}\s.,\-'_!"&/()+@:]`)
var RERepeatingSpaces *regexp.Regexp = regexp.MustCompile(`\s+`)

// allows readable chars like unicode, otherwise replaces with whitespace
func SanitizeString(s string) string {
	sanitized := REInvalidChars.ReplaceAllString(s, " ")
	sanitized = RERepeatingSpaces.ReplaceAllString(sanitized, " ")
	return strings.TrimSpace(sanitized)
}

func (u *User) Validate() error {
	u.Username = SanitizeString(u.Username)
	if u.Username == "" {
		return fmt.Errorf("user 'username' cannot be empty")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("user password hash cannot be empty")
	}
	if u.Role == "" {
		u.Role = "staff"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

func (c *Client) Validate() error {
	c.Name = SanitizeString(c.Name)
	if c.Name == "" {
		return fmt.Errorf("client 'name' cannot be empty")
	}
	c.Country = SanitizeString(c.Country)
	c.Address = SanitizeString(c.Address)
	if c.Currency == "" {
		c.Currency = "EGP"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

func (p *Product) Validate() error {
	p.Description = SanitizeString(p.Description)
	if p.Description == "" {
		return fmt.Errorf("product 'description' cannot be empty")
	}
	if p.Price < 0 {
		return fmt.Errorf("product 'price' cannot be negative")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return nil
}

func (e *Employee) Validate() error {
	e.Name = SanitizeString(e.Name)
	if e.Name == "" {
		return fmt.Errorf("employee 'name' cannot be empty")
	}
	e.Position = SanitizeString(e.Position)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

func (i *Invoice) Validate() error {
	i.ClientName = SanitizeString(i.ClientName)
	if i.ClientName == "" {
		return fmt.Errorf("invoice 'client_name' cannot be empty")
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	if !ValidStatus(i.Status) {
		return fmt.Errorf("invalid invoice status: %s", i.Status)
	}
	if i.Currency == "" {
		i.Currency = "EGP"
	}
	if i.InvoiceType == "" {
		i.InvoiceType = "Invoice"
	}
	if i.Language == "" {
		i.Language = "en"
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	i.Recalculate()
	return nil
}

// Recalculate fills missing line totals and keeps the invoice totals
// consistent with its items. The stored total is always
// subtotal + tax - discount.
func (i *Invoice) Recalculate() {
	var sum float64
	for idx := range i.Items {
		item := &i.Items[idx]
		if item.Total == 0 && item.Quantity != 0 && item.Price != 0 {
			item.Total = item.Quantity * item.Price
		}
		sum += item.Total
	}
	if len(i.Items) > 0 {
		i.Subtotal = sum
	}
	i.Total = i.Subtotal + i.Tax - i.Discount
}
