package database

import (
	"database/sql"
	stdlog "log"

	"github.com/coolchillgy/pay/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateCompanyTable()
	migrateTransactionTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		login_id TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		api_key TEXT UNIQUE NOT NULL,
		bank_name TEXT NOT NULL,
		account_number TEXT NOT NULL,
		account_holder TEXT NOT NULL,
		fee_rate REAL DEFAULT 0.03,
		is_active BOOLEAN DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		bank_name TEXT,
		sender_name TEXT,
		account_number TEXT,
		amount DECIMAL(15,2) NOT NULL,
		balance DECIMAL(15,2),
		fee_amount DECIMAL(15,2) DEFAULT 0,
		raw_message TEXT NOT NULL,
		is_rolling BOOLEAN DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (company_id) REFERENCES companies(id)
	);

	CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_active BOOLEAN DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func tableColumns(tableName string) (map[string]bool, bool) {
	var name string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("Table does not exist, no migration needed as table will be created.", "table", tableName)
			} else {
				stdlog.Printf("'%s' table does not exist, no migration needed as table will be created.", tableName)
			}
			return nil, false
		}
		if logger.L != nil {
			logger.L.Error("Error checking for table", "table", tableName, "error", err)
		} else {
			stdlog.Printf("Error checking for '%s' table: %v", tableName, err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + tableName + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", tableName, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for '%s': %v", tableName, err)
		}
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var colName, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &colName, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", tableName, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for '%s': %v", tableName, err)
			}
			return nil, false
		}
		columnExists[colName] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", tableName, "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for '%s': %v", tableName, err)
		}
		return nil, false
	}
	return columnExists, true
}

func addColumnIfMissing(columnExists map[string]bool, tableName, columnName, columnDef string) {
	if _, ok := columnExists[columnName]; ok {
		return
	}
	_, err := DB.Exec("ALTER TABLE " + tableName + " ADD COLUMN " + columnName + " " + columnDef)
	if err != nil {
		logger.L.Error("Error adding column", "table", tableName, "column", columnName, "error", err)
	} else {
		logger.L.Info("Added column", "table", tableName, "column", columnName)
	}
}

func migrateCompanyTable() {
	columnExists, ok := tableColumns("companies")
	if !ok {
		return
	}

	addColumnIfMissing(columnExists, "companies", "is_active", "BOOLEAN DEFAULT 1")
	addColumnIfMissing(columnExists, "companies", "fee_rate", "REAL DEFAULT 0.03")
	addColumnIfMissing(columnExists, "companies", "created_at", "TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
}

func migrateTransactionTable() {
	columnExists, ok := tableColumns("transactions")
	if !ok {
		return
	}

	addColumnIfMissing(columnExists, "transactions", "account_number", "TEXT")
	addColumnIfMissing(columnExists, "transactions", "is_rolling", "BOOLEAN DEFAULT 0")
	addColumnIfMissing(columnExists, "transactions", "fee_amount", "DECIMAL(15,2) DEFAULT 0")
}
