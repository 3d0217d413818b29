package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// databaseStore implements the Storage interface for PostgreSQL.
type databaseStore struct {
	db *sql.DB
}

// SQL queries as constants for reusability and clarity.
const (
	createUsersTableSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`

	createClientsTableSQL = `
	CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(50),
		country VARCHAR(100),
		currency VARCHAR(10) NOT NULL,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);`

	createProductsTableSQL = `
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		code VARCHAR(100),
		description VARCHAR(255) NOT NULL,
		price NUMERIC(12, 2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`

	createInvoicesTableSQL = `
	CREATE TABLE IF NOT EXISTS invoices (
		id SERIAL PRIMARY KEY,
		client_id INTEGER,
		client_name VARCHAR(255) NOT NULL,
		items JSONB NOT NULL DEFAULT '[]'::jsonb,
		subtotal NUMERIC(14, 2) NOT NULL DEFAULT 0,
		tax NUMERIC(14, 2) NOT NULL DEFAULT 0,
		discount NUMERIC(14, 2) NOT NULL DEFAULT 0,
		total NUMERIC(14, 2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL,
		currency VARCHAR(10) NOT NULL DEFAULT 'EGP',
		invoice_type VARCHAR(50) NOT NULL,
		language VARCHAR(5) NOT NULL,
		agent_name VARCHAR(255),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);`

	createEmployeesTableSQL = `
	CREATE TABLE IF NOT EXISTS employees (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		position VARCHAR(255),
		phone VARCHAR(50),
		salary NUMERIC(12, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);`

	selectInvoiceSQL = `SELECT id, COALESCE(client_id, 0), client_name, items, subtotal, tax, discount, total, status, currency, invoice_type, language, COALESCE(agent_name, ''), COALESCE(notes, ''), created_at FROM invoices`
)

func InitializePostgresStore(baseConfig SystemConfig) (Storage, error) {
	dbURL := makeDBURL(baseConfig)
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %v", err)
	}
	log.Println("Connected to PostgreSQL database")

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create database tables: %v", err)
	}
	return &databaseStore{db: db}, nil
}

func makeDBURL(baseConfig SystemConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s?sslmode=%s", baseConfig.StorageUser, baseConfig.StoragePass, baseConfig.StorageURL, baseConfig.StorageSSL)
}

func createTables(db *sql.DB) error {
	for _, query := range []string{createUsersTableSQL, createClientsTableSQL, createProductsTableSQL, createInvoicesTableSQL, createEmployeesTableSQL} {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *databaseStore) Close() error {
	return s.db.Close()
}

func (s *databaseStore) GetUserByUsername(username string) (User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	var user User
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, fmt.Errorf("user %s not found", username)
		}
		return User{}, fmt.Errorf("failed to get user: %v", err)
	}
	return user, nil
}

func (s *databaseStore) AddUser(user User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	query := `INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.Exec(query, user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("user %s already exists", user.Username)
	}
	return err
}

func (s *databaseStore) CountUsers() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %v", err)
	}
	return count, nil
}

func scanClient(scanner interface{ Scan(...any) error }) (Client, error) {
	var client Client
	var phone, country, address sql.NullString
	err := scanner.Scan(&client.ID, &client.Name, &phone, &country, &client.Currency, &address, &client.CreatedAt)
	if err != nil {
		return Client{}, err
	}
	client.Phone = phone.String
	client.Country = country.String
	client.Address = address.String
	return client, nil
}

func (s *databaseStore) GetAllClients() ([]Client, error) {
	query := `SELECT id, name, phone, country, currency, address, created_at FROM clients ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %v", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %v", err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func (s *databaseStore) GetClient(id int) (Client, error) {
	query := `SELECT id, name, phone, country, currency, address, created_at FROM clients WHERE id = $1`
	client, err := scanClient(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Client{}, fmt.Errorf("client with ID %d not found", id)
		}
		return Client{}, fmt.Errorf("failed to get client: %v", err)
	}
	return client, nil
}

func (s *databaseStore) AddClient(client Client) (int, error) {
	if err := client.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO clients (name, phone, country, currency, address, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int
	err := s.db.QueryRow(query, client.Name, client.Phone, client.Country, client.Currency, client.Address, client.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert client: %v", err)
	}
	return id, nil
}

func (s *databaseStore) UpdateClient(id int, client Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	query := `UPDATE clients SET name = $1, phone = $2, country = $3, currency = $4, address = $5 WHERE id = $6`
	result, err := s.db.Exec(query, client.Name, client.Phone, client.Country, client.Currency, client.Address, id)
	if err != nil {
		return fmt.Errorf("failed to update client: %v", err)
	}
	return requireRow(result, fmt.Sprintf("client with ID %d not found", id))
}

func (s *databaseStore) RemoveClient(id int) error {
	result, err := s.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %v", err)
	}
	return requireRow(result, fmt.Sprintf("client with ID %d not found", id))
}

func scanProduct(scanner interface{ Scan(...any) error }) (Product, error) {
	var product Product
	var code sql.NullString
	err := scanner.Scan(&product.ID, &code, &product.Description, &product.Price, &product.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	product.Code = code.String
	return product, nil
}

func (s *databaseStore) GetAllProducts() ([]Product, error) {
	query := `SELECT id, code, description, price, created_at FROM products ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %v", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (s *databaseStore) GetProduct(id int) (Product, error) {
	query := `SELECT id, code, description, price, created_at FROM products WHERE id = $1`
	product, err := scanProduct(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, fmt.Errorf("product with ID %d not found", id)
		}
		return Product{}, fmt.Errorf("failed to get product: %v", err)
	}
	return product, nil
}

func (s *databaseStore) AddProduct(product Product) (int, error) {
	if err := product.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO products (code, description, price, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := s.db.QueryRow(query, product.Code, product.Description, product.Price, product.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %v", err)
	}
	return id, nil
}

func (s *databaseStore) UpdateProduct(id int, product Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	query := `UPDATE products SET code = $1, description = $2, price = $3 WHERE id = $4`
	result, err := s.db.Exec(query, product.Code, product.Description, product.Price, id)
	if err != nil {
		return fmt.Errorf("failed to update product: %v", err)
	}
	return requireRow(result, fmt.Sprintf("product with ID %d not found", id))
}

func (s *databaseStore) RemoveProduct(id int) error {
	result, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}
	return requireRow(result, fmt.Sprintf("product with ID %d not found", id))
}

func scanInvoice(scanner interface{ Scan(...any) error }) (Invoice, error) {
	var invoice Invoice
	var itemsRaw []byte
	err := scanner.Scan(&invoice.ID, &invoice.ClientID, &invoice.ClientName, &itemsRaw, &invoice.Subtotal, &invoice.Tax, &invoice.Discount, &invoice.Total, &invoice.Status, &invoice.Currency, &invoice.InvoiceType, &invoice.Language, &invoice.AgentName, &invoice.Notes, &invoice.CreatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if err := json.Unmarshal(itemsRaw, &invoice.Items); err != nil {
		return Invoice{}, fmt.Errorf("failed to parse invoice items: %v", err)
	}
	return invoice, nil
}

func (s *databaseStore) GetAllInvoices() ([]Invoice, error) {
	rows, err := s.db.Query(selectInvoiceSQL + ` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %v", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %v", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

func (s *databaseStore) GetInvoice(id int) (Invoice, error) {
	invoice, err := scanInvoice(s.db.QueryRow(selectInvoiceSQL+` WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Invoice{}, fmt.Errorf("invoice with ID %d not found", id)
		}
		return Invoice{}, fmt.Errorf("failed to get invoice: %v", err)
	}
	return invoice, nil
}

func (s *databaseStore) AddInvoice(invoice Invoice) (int, error) {
	if err := invoice.Validate(); err != nil {
		return 0, err
	}
	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal invoice items: %v", err)
	}
	query := `
		INSERT INTO invoices (client_id, client_name, items, subtotal, tax, discount, total, status, currency, invoice_type, language, agent_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var id int
	err = s.db.QueryRow(query, invoice.ClientID, invoice.ClientName, itemsJSON, invoice.Subtotal, invoice.Tax, invoice.Discount, invoice.Total, invoice.Status, invoice.Currency, invoice.InvoiceType, invoice.Language, invoice.AgentName, invoice.Notes, invoice.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert invoice: %v", err)
	}
	return id, nil
}

func (s *databaseStore) UpdateInvoice(id int, invoice Invoice) error {
	if err := invoice.Validate(); err != nil {
		return err
	}
	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice items: %v", err)
	}
	query := `
		UPDATE invoices
		SET client_id = $1, client_name = $2, items = $3, subtotal = $4, tax = $5, discount = $6, total = $7, status = $8, currency = $9, invoice_type = $10, language = $11, agent_name = $12, notes = $13
		WHERE id = $14
	`
	result, err := s.db.Exec(query, invoice.ClientID, invoice.ClientName, itemsJSON, invoice.Subtotal, invoice.Tax, invoice.Discount, invoice.Total, invoice.Status, invoice.Currency, invoice.InvoiceType, invoice.Language, invoice.AgentName, invoice.Notes, id)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %v", err)
	}
	return requireRow(result, fmt.Sprintf("invoice with ID %d not found", id))
}

func (s *databaseStore) UpdateInvoiceStatus(id int, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid invoice status: %s", status)
	}
	result, err := s.db.Exec(`UPDATE invoices SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %v", err)
	}
	return requireRow(result, fmt.Sprintf("invoice with ID %d not found", id))
}

func (s *databaseStore) RemoveInvoice(id int) error {
	result, err := s.db.Exec(`DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %v", err)
	}
	return requireRow(result, fmt.Sprintf("invoice with ID %d not found", id))
}

func (s *databaseStore) CancelStalePendingInvoices(olderThan time.Duration) (int, error) {
	query := `UPDATE invoices SET status = $1 WHERE status = $2 AND created_at < $3`
	result, err := s.db.Exec(query, StatusCancelled, StatusPending, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale invoices: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %v", err)
	}
	return int(rowsAffected), nil
}

func scanEmployee(scanner interface{ Scan(...any) error }) (Employee, error) {
	var employee Employee
	var position, phone sql.NullString
	err := scanner.Scan(&employee.ID, &employee.Name, &position, &phone, &employee.Salary, &employee.CreatedAt)
	if err != nil {
		return Employee{}, err
	}
	employee.Position = position.String
	employee.Phone = phone.String
	return employee, nil
}

func (s *databaseStore) GetAllEmployees() ([]Employee, error) {
	query := `SELECT id, name, position, phone, salary, created_at FROM employees ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %v", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %v", err)
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

func (s *databaseStore) GetEmployee(id int) (Employee, error) {
	query := `SELECT id, name, position, phone, salary, created_at FROM employees WHERE id = $1`
	employee, err := scanEmployee(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Employee{}, fmt.Errorf("employee with ID %d not found", id)
		}
		return Employee{}, fmt.Errorf("failed to get employee: %v", err)
	}
	return employee, nil
}

func (s *databaseStore) AddEmployee(employee Employee) (int, error) {
	if err := employee.Validate(); err != nil {
		return 0, err
	}
	query := `INSERT INTO employees (name, position, phone, salary, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int
	err := s.db.QueryRow(query, employee.Name, employee.Position, employee.Phone, employee.Salary, employee.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert employee: %v", err)
	}
	return id, nil
}

func (s *databaseStore) UpdateEmployee(id int, employee Employee) error {
	if err := employee.Validate(); err != nil {
		return err
	}
	query := `UPDATE employees SET name = $1, position = $2, phone = $3, salary = $4 WHERE id = $5`
	result, err := s.db.Exec(query, employee.Name, employee.Position, employee.Phone, employee.Salary, id)
	if err != nil {
		return fmt.Errorf("failed to update employee: %v", err)
	}
	return requireRow(result, fmt.Sprintf("employee with ID %d not found", id))
}

func (s *databaseStore) RemoveEmployee(id int) error {
	result, err := s.db.Exec(`DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %v", err)
	}
	return requireRow(result, fmt.Sprintf("employee with ID %d not found", id))
}

func requireRow(result sql.Result, notFound string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s", notFound)
	}
	return nil
}
