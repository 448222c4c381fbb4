package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/security"
	"github.com/coolchillgy/pay/src/utils"
)

type AuthHandler struct {
	authService *security.AuthService
}

func NewAuthHandler(authService *security.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginHandler authenticates admins and companies through one endpoint:
// admin usernames are checked first, then company login ids.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	logger.L.Debug("Login attempt", "username", credentials.Username)

	if admin, err := model.GetAdminByUsername(database.DB, credentials.Username); err == nil {
		if err := h.authService.CompareHashAndPassword(admin.Password, credentials.Password); err == nil {
			token, err := h.authService.GenerateToken(admin.ID, security.RoleAdmin, 0)
			if err != nil {
				utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
				return
			}
			utils.SendJSON(w, map[string]interface{}{
				"access_token": token,
				"token_type":   "bearer",
				"role":         security.RoleAdmin,
				"redirect":     "/admin",
			}, http.StatusOK)
			return
		}
	}

	if company, err := model.GetCompanyByLoginID(database.DB, credentials.Username); err == nil {
		if err := h.authService.CompareHashAndPassword(company.Password, credentials.Password); err == nil {
			token, err := h.authService.GenerateToken(company.ID, security.RoleCompany, company.ID)
			if err != nil {
				utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
				return
			}
			utils.SendJSON(w, map[string]interface{}{
				"access_token": token,
				"token_type":   "bearer",
				"role":         security.RoleCompany,
				"company_id":   company.ID,
				"redirect":     "/company",
			}, http.StatusOK)
			return
		}
	}

	logger.L.Warn("Login failed", "username", credentials.Username)
	utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
}
