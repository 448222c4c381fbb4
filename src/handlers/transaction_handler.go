package handlers

import (
	"net/http"
	"strconv"

	"github.com/coolchillgy/pay/src/config"
	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/security"
	"github.com/coolchillgy/pay/src/utils"
)

type TransactionHandler struct {
}

func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// HandleListCompanyTransactions returns a company's transactions,
// newest first. Admins can read any company; a company token can only
// read its own.
func (h *TransactionHandler) HandleListCompanyTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	companyID, err := strconv.ParseInt(r.PathValue("companyID"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid company id", http.StatusBadRequest)
		return
	}

	if claims.Role == security.RoleCompany && claims.CompanyID != companyID {
		utils.SendJSONError(w, "Access to another company's transactions denied", http.StatusForbidden)
		return
	}

	transactions, err := model.ListTransactionsByCompany(database.DB, companyID, config.Cfg.TransactionsPageLimit)
	if err != nil {
		logger.L.Error("Error querying transactions", "companyID", companyID, "error", err)
		utils.SendJSONError(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"transactions": transactions,
	}, http.StatusOK)
}
