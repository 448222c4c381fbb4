package model

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	return database.DB
}

func newCompany(apiKey string) *Company {
	return &Company{
		CompanyName:   "업체",
		LoginID:       "login-" + apiKey,
		Password:      "hash",
		APIKey:        apiKey,
		BankName:      "농협",
		AccountNumber: "302-1234-5678-91",
		AccountHolder: "신주일",
		FeeRate:       0.03,
	}
}

func TestCreateAndLookupCompany(t *testing.T) {
	db := setupTestDB(t)

	company := newCompany("abc")
	require.NoError(t, CreateCompany(db, company))
	assert.NotZero(t, company.ID)
	assert.True(t, company.IsActive)

	byKey, err := GetActiveCompanyByAPIKey(db, "abc")
	require.NoError(t, err)
	assert.Equal(t, company.ID, byKey.ID)
	assert.Equal(t, 0.03, byKey.FeeRate)
	assert.Equal(t, "신주일", byKey.AccountHolder)

	byLogin, err := GetCompanyByLoginID(db, "login-abc")
	require.NoError(t, err)
	assert.Equal(t, company.ID, byLogin.ID)
}

func TestCreateCompanyDuplicateLoginID(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, CreateCompany(db, newCompany("dup")))
	second := newCompany("other-key")
	second.LoginID = "login-dup"
	assert.Error(t, CreateCompany(db, second))
}

func TestGetActiveCompanyByAPIKeySkipsInactive(t *testing.T) {
	db := setupTestDB(t)

	company := newCompany("inactive")
	require.NoError(t, CreateCompany(db, company))
	_, err := db.Exec(`UPDATE companies SET is_active = 0 WHERE id = ?`, company.ID)
	require.NoError(t, err)

	_, err = GetActiveCompanyByAPIKey(db, "inactive")
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	// The status-agnostic lookup still resolves it.
	found, err := GetCompanyByAPIKey(db, "inactive")
	require.NoError(t, err)
	assert.Equal(t, company.ID, found.ID)
}

func TestInsertAndListTransactions(t *testing.T) {
	db := setupTestDB(t)

	company := newCompany("tx")
	require.NoError(t, CreateCompany(db, company))

	first := &Transaction{
		CompanyID:       company.ID,
		TransactionType: "deposit",
		BankName:        "농협",
		SenderName:      "김철수",
		Amount:          100000,
		Balance:         500000,
		FeeAmount:       3000,
		RawMessage:      "raw-1",
	}
	require.NoError(t, InsertTransaction(db, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &Transaction{
		CompanyID:       company.ID,
		TransactionType: "withdrawal",
		BankName:        "농협",
		Amount:          50000,
		Balance:         450000,
		RawMessage:      "raw-2",
	}
	require.NoError(t, InsertTransaction(db, second))

	transactions, err := ListTransactionsByCompany(db, company.ID, 100)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	// Newest first.
	assert.Equal(t, second.ID, transactions[0].ID)
	assert.Equal(t, first.ID, transactions[1].ID)
	assert.Equal(t, "raw-1", transactions[1].RawMessage)

	limited, err := ListTransactionsByCompany(db, company.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDailyTotalsAndCompanyStats(t *testing.T) {
	db := setupTestDB(t)

	company := newCompany("stats")
	require.NoError(t, CreateCompany(db, company))

	deposit := &Transaction{CompanyID: company.ID, TransactionType: "deposit", Amount: 200000, FeeAmount: 6000, RawMessage: "d"}
	withdrawal := &Transaction{CompanyID: company.ID, TransactionType: "withdrawal", Amount: 50000, RawMessage: "w"}
	require.NoError(t, InsertTransaction(db, deposit))
	require.NoError(t, InsertTransaction(db, withdrawal))

	totals, err := GetDailyTotals(db)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, totals.TotalDeposits)
	assert.Equal(t, 6000.0, totals.TotalFees)
	assert.Equal(t, int64(2), totals.TotalTransactions)

	stats, err := ListCompanyDailyStats(db)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, company.ID, stats[0].CompanyID)
	assert.Equal(t, 200000.0, stats[0].TodayDeposits)
	assert.Equal(t, 50000.0, stats[0].TodayWithdrawals)
	assert.Equal(t, int64(2), stats[0].TodayTransactions)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, EnsureDefaultAdmin(db, "admin", "79797979"))
	// Idempotent: a second call leaves the existing row untouched.
	require.NoError(t, EnsureDefaultAdmin(db, "admin", "different"))

	admin, err := GetAdminByUsername(db, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("79797979")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("different")))

	_, err = GetAdminByUsername(db, "missing")
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
