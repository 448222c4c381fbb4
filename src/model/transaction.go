package model

import (
	"database/sql"
	"time"
)

// Transaction is a persisted settlement record. Rows are append-only:
// created once by the ingestion pipeline, never updated or deleted.
type Transaction struct {
	ID              int64     `json:"id"`
	CompanyID       int64     `json:"company_id"`
	TransactionType string    `json:"transaction_type"`
	BankName        string    `json:"bank_name"`
	SenderName      string    `json:"sender_name"`
	AccountNumber   string    `json:"account_number"`
	Amount          float64   `json:"amount"`
	Balance         float64   `json:"balance"`
	FeeAmount       float64   `json:"fee_amount"`
	RawMessage      string    `json:"-"`
	IsRolling       bool      `json:"is_rolling"`
	CreatedAt       time.Time `json:"created_at"`
}

// InsertTransaction appends a transaction, assigning its ID and CreatedAt.
func InsertTransaction(db *sql.DB, tx *Transaction) error {
	query := `
	INSERT INTO transactions (company_id, transaction_type, bank_name, sender_name, account_number, amount, balance, fee_amount, raw_message, is_rolling, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	tx.CreatedAt = time.Now()
	res, err := stmt.Exec(
		tx.CompanyID,
		tx.TransactionType,
		tx.BankName,
		tx.SenderName,
		tx.AccountNumber,
		tx.Amount,
		tx.Balance,
		tx.FeeAmount,
		tx.RawMessage,
		tx.IsRolling,
		tx.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

// ListTransactionsByCompany returns a company's transactions, newest first.
func ListTransactionsByCompany(db *sql.DB, companyID int64, limit int) ([]Transaction, error) {
	rows, err := db.Query(`
		SELECT id, company_id, transaction_type, bank_name, sender_name, account_number,
			amount, balance, fee_amount, raw_message, is_rolling, created_at
		FROM transactions
		WHERE company_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.CompanyID,
			&tx.TransactionType,
			&tx.BankName,
			&tx.SenderName,
			&tx.AccountNumber,
			&tx.Amount,
			&tx.Balance,
			&tx.FeeAmount,
			&tx.RawMessage,
			&tx.IsRolling,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// DailyTotals aggregates today's traffic across all companies.
type DailyTotals struct {
	TotalDeposits     float64 `json:"total_deposits"`
	TotalFees         float64 `json:"total_fees"`
	TotalTransactions int64   `json:"total_transactions"`
}

// GetDailyTotals computes today's deposit volume, fee volume and
// transaction count over all companies.
func GetDailyTotals(db *sql.DB) (*DailyTotals, error) {
	var totals DailyTotals
	err := db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type = 'deposit' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(fee_amount), 0),
			COUNT(*)
		FROM transactions
		WHERE DATE(created_at) = DATE('now', 'localtime')`).Scan(
		&totals.TotalDeposits, &totals.TotalFees, &totals.TotalTransactions)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// CompanyDailyStats is one company's slice of today's traffic.
type CompanyDailyStats struct {
	CompanyID         int64   `json:"id"`
	CompanyName       string  `json:"company_name"`
	LoginID           string  `json:"login_id"`
	FeeRate           float64 `json:"fee_rate"`
	APIKey            string  `json:"api_key"`
	TodayDeposits     float64 `json:"today_deposits"`
	TodayWithdrawals  float64 `json:"today_withdrawals"`
	TodayFees         float64 `json:"today_fees"`
	TodayTransactions int64   `json:"today_transactions"`
}

// ListCompanyDailyStats returns per-company totals for today, ordered by
// deposit volume descending. Companies without traffic still appear.
func ListCompanyDailyStats(db *sql.DB) ([]CompanyDailyStats, error) {
	rows, err := db.Query(`
		SELECT
			c.id, c.company_name, c.login_id, c.fee_rate, c.api_key,
			COALESCE(SUM(CASE WHEN t.transaction_type = 'deposit' THEN t.amount ELSE 0 END), 0) AS today_deposits,
			COALESCE(SUM(CASE WHEN t.transaction_type = 'withdrawal' THEN t.amount ELSE 0 END), 0) AS today_withdrawals,
			COALESCE(SUM(t.fee_amount), 0) AS today_fees,
			COUNT(t.id) AS today_transactions
		FROM companies c
		LEFT JOIN transactions t ON c.id = t.company_id
			AND DATE(t.created_at) = DATE('now', 'localtime')
		WHERE c.is_active = 1
		GROUP BY c.id
		ORDER BY today_deposits DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []CompanyDailyStats{}
	for rows.Next() {
		var s CompanyDailyStats
		if err := rows.Scan(
			&s.CompanyID,
			&s.CompanyName,
			&s.LoginID,
			&s.FeeRate,
			&s.APIKey,
			&s.TodayDeposits,
			&s.TodayWithdrawals,
			&s.TodayFees,
			&s.TodayTransactions,
		); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
