package model

import (
	"database/sql"
	"errors"
	"time"
)

// ErrCompanyNotFound is returned when no (active) company matches a lookup.
var ErrCompanyNotFound = errors.New("company not found")

type Company struct {
	ID            int64     `json:"id"`
	CompanyName   string    `json:"company_name"`
	LoginID       string    `json:"login_id"`
	Password      string    `json:"-"` // bcrypt hash, never serialized
	APIKey        string    `json:"api_key"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountHolder string    `json:"account_holder"`
	FeeRate       float64   `json:"fee_rate"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateCompany inserts a new company into the database and sets its ID.
func CreateCompany(db *sql.DB, c *Company) error {
	query := `
	INSERT INTO companies (company_name, login_id, password_hash, api_key, bank_name, account_number, account_holder, fee_rate, is_active, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	c.IsActive = true
	c.CreatedAt = time.Now()
	res, err := stmt.Exec(
		c.CompanyName,
		c.LoginID,
		c.Password,
		c.APIKey,
		c.BankName,
		c.AccountNumber,
		c.AccountHolder,
		c.FeeRate,
		c.IsActive,
		c.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

const companyColumns = `id, company_name, login_id, password_hash, api_key, bank_name, account_number, account_holder, fee_rate, is_active, created_at`

func scanCompany(row *sql.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID,
		&c.CompanyName,
		&c.LoginID,
		&c.Password,
		&c.APIKey,
		&c.BankName,
		&c.AccountNumber,
		&c.AccountHolder,
		&c.FeeRate,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetCompanyByLoginID retrieves a company by its login identity.
func GetCompanyByLoginID(db *sql.DB, loginID string) (*Company, error) {
	row := db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE login_id = ?`, loginID)
	return scanCompany(row)
}

// GetActiveCompanyByAPIKey resolves a webhook API key to an active company.
// Inactive companies are treated the same as unknown keys.
func GetActiveCompanyByAPIKey(db *sql.DB, apiKey string) (*Company, error) {
	row := db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE api_key = ? AND is_active = 1`, apiKey)
	return scanCompany(row)
}

// GetCompanyByAPIKey retrieves a company by API key regardless of status.
func GetCompanyByAPIKey(db *sql.DB, apiKey string) (*Company, error) {
	row := db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE api_key = ?`, apiKey)
	return scanCompany(row)
}

// GetCompanyByID retrieves a company by its primary key.
func GetCompanyByID(db *sql.DB, id int64) (*Company, error) {
	row := db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

// CountActiveCompanies returns the number of active companies.
func CountActiveCompanies(db *sql.DB) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM companies WHERE is_active = 1`).Scan(&count)
	return count, err
}
