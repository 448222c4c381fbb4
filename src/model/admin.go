package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrAdminNotFound = errors.New("admin not found")

type Admin struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// GetAdminByUsername retrieves an active admin by username.
func GetAdminByUsername(db *sql.DB, username string) (*Admin, error) {
	query := `
	SELECT id, username, password_hash, is_active, created_at
	FROM admins
	WHERE username = ? AND is_active = 1`

	row := db.QueryRow(query, username)
	var admin Admin
	err := row.Scan(&admin.ID, &admin.Username, &admin.Password, &admin.IsActive, &admin.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// EnsureDefaultAdmin creates the bootstrap admin account if no row with the
// given username exists yet. Existing rows are left untouched.
func EnsureDefaultAdmin(db *sql.DB, username, password string) error {
	var id int64
	err := db.QueryRow(`SELECT id FROM admins WHERE username = ?`, username).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO admins (username, password_hash, is_active, created_at) VALUES (?, ?, 1, ?)`,
		username, string(hash), time.Now(),
	)
	return err
}
