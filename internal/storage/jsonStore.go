package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// jsonStore implements the Storage interface on a single JSON file.
// Every mutation rewrites the file; fine for a small office dataset.
type jsonStore struct {
	mu   sync.RWMutex
	path string
	data jsonFile
}

type jsonFile struct {
	Counters  map[string]int `json:"counters"`
	Users     []User         `json:"users"`
	Clients   []Client       `json:"clients"`
	Products  []Product      `json:"products"`
	Invoices  []Invoice      `json:"invoices"`
	Employees []Employee     `json:"employees"`
}

func InitializeJsonStore(baseConfig SystemConfig) (Storage, error) {
	dir := baseConfig.StorageURL
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}
	store := &jsonStore{
		path: filepath.Join(dir, "office.json"),
		data: jsonFile{Counters: map[string]int{}},
	}
	raw, err := os.ReadFile(store.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read data file: %v", err)
		}
		if err := store.persist(); err != nil {
			return nil, err
		}
		log.Printf("Created data file at %s\n", store.path)
		return store, nil
	}
	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %v", err)
	}
	if store.data.Counters == nil {
		store.data.Counters = map[string]int{}
	}
	return store, nil
}

func (s *jsonStore) Close() error {
	return nil
}

// persist writes through a temp file so a crash mid-write cannot
// truncate the dataset. Caller holds the write lock.
func (s *jsonStore) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data file: %v", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write data file: %v", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *jsonStore) nextID(kind string) int {
	s.data.Counters[kind]++
	return s.data.Counters[kind]
}

func (s *jsonStore) GetUserByUsername(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return User{}, fmt.Errorf("user %s not found", username)
}

func (s *jsonStore) AddUser(user User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.Users {
		if existing.Username == user.Username {
			return fmt.Errorf("user %s already exists", user.Username)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	s.data.Users = append(s.data.Users, user)
	return s.persist()
}

func (s *jsonStore) CountUsers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Users), nil
}

func (s *jsonStore) GetAllClients() ([]Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Client, len(s.data.Clients))
	copy(out, s.data.Clients)
	return out, nil
}

func (s *jsonStore) GetClient(id int) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.data.Clients {
		if client.ID == id {
			return client, nil
		}
	}
	return Client{}, fmt.Errorf("client with ID %d not found", id)
}

func (s *jsonStore) AddClient(client Client) (int, error) {
	if err := client.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	client.ID = s.nextID("clients")
	s.data.Clients = append(s.data.Clients, client)
	return client.ID, s.persist()
}

func (s *jsonStore) UpdateClient(id int, client Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Clients {
		if s.data.Clients[idx].ID == id {
			client.ID = id
			client.CreatedAt = s.data.Clients[idx].CreatedAt
			s.data.Clients[idx] = client
			return s.persist()
		}
	}
	return fmt.Errorf("client with ID %d not found", id)
}

func (s *jsonStore) RemoveClient(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Clients {
		if s.data.Clients[idx].ID == id {
			s.data.Clients = append(s.data.Clients[:idx], s.data.Clients[idx+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("client with ID %d not found", id)
}

func (s *jsonStore) GetAllProducts() ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.data.Products))
	copy(out, s.data.Products)
	return out, nil
}

func (s *jsonStore) GetProduct(id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, product := range s.data.Products {
		if product.ID == id {
			return product, nil
		}
	}
	return Product{}, fmt.Errorf("product with ID %d not found", id)
}

func (s *jsonStore) AddProduct(product Product) (int, error) {
	if err := product.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = s.nextID("products")
	s.data.Products = append(s.data.Products, product)
	return product.ID, s.persist()
}

func (s *jsonStore) UpdateProduct(id int, product Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Products {
		if s.data.Products[idx].ID == id {
			product.ID = id
			product.CreatedAt = s.data.Products[idx].CreatedAt
			s.data.Products[idx] = product
			return s.persist()
		}
	}
	return fmt.Errorf("product with ID %d not found", id)
}

func (s *jsonStore) RemoveProduct(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Products {
		if s.data.Products[idx].ID == id {
			s.data.Products = append(s.data.Products[:idx], s.data.Products[idx+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("product with ID %d not found", id)
}

func (s *jsonStore) GetAllInvoices() ([]Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invoice, len(s.data.Invoices))
	copy(out, s.data.Invoices)
	return out, nil
}

func (s *jsonStore) GetInvoice(id int) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, invoice := range s.data.Invoices {
		if invoice.ID == id {
			return invoice, nil
		}
	}
	return Invoice{}, fmt.Errorf("invoice with ID %d not found", id)
}

func (s *jsonStore) AddInvoice(invoice Invoice) (int, error) {
	if err := invoice.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice.ID = s.nextID("invoices")
	s.data.Invoices = append(s.data.Invoices, invoice)
	return invoice.ID, s.persist()
}

func (s *jsonStore) UpdateInvoice(id int, invoice Invoice) error {
	if err := invoice.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Invoices {
		if s.data.Invoices[idx].ID == id {
			invoice.ID = id
			invoice.CreatedAt = s.data.Invoices[idx].CreatedAt
			s.data.Invoices[idx] = invoice
			return s.persist()
		}
	}
	return fmt.Errorf("invoice with ID %d not found", id)
}

func (s *jsonStore) UpdateInvoiceStatus(id int, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid invoice status: %s", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Invoices {
		if s.data.Invoices[idx].ID == id {
			s.data.Invoices[idx].Status = status
			return s.persist()
		}
	}
	return fmt.Errorf("invoice with ID %d not found", id)
}

func (s *jsonStore) RemoveInvoice(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Invoices {
		if s.data.Invoices[idx].ID == id {
			s.data.Invoices = append(s.data.Invoices[:idx], s.data.Invoices[idx+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("invoice with ID %d not found", id)
}

func (s *jsonStore) CancelStalePendingInvoices(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	cancelled := 0
	for idx := range s.data.Invoices {
		invoice := &s.data.Invoices[idx]
		if invoice.Status == StatusPending && invoice.CreatedAt.Before(cutoff) {
			invoice.Status = StatusCancelled
			cancelled++
		}
	}
	if cancelled == 0 {
		return 0, nil
	}
	return cancelled, s.persist()
}

func (s *jsonStore) GetAllEmployees() ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, len(s.data.Employees))
	copy(out, s.data.Employees)
	return out, nil
}

func (s *jsonStore) GetEmployee(id int) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, employee := range s.data.Employees {
		if employee.ID == id {
			return employee, nil
		}
	}
	return Employee{}, fmt.Errorf("employee with ID %d not found", id)
}

func (s *jsonStore) AddEmployee(employee Employee) (int, error) {
	if err := employee.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	employee.ID = s.nextID("employees")
	s.data.Employees = append(s.data.Employees, employee)
	return employee.ID, s.persist()
}

func (s *jsonStore) UpdateEmployee(id int, employee Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Employees {
		if s.data.Employees[idx].ID == id {
			employee.ID = id
			employee.CreatedAt = s.data.Employees[idx].CreatedAt
			s.data.Employees[idx] = employee
			return s.persist()
		}
	}
	return fmt.Errorf("employee with ID %d not found", id)
}

func (s *jsonStore) RemoveEmployee(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.data.Employees {
		if s.data.Employees[idx].ID == id {
			s.data.Employees = append(s.data.Employees[:idx], s.data.Employees[idx+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("employee with ID %d not found", id)
}
