package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coolchillgy/pay/src/config"
	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/security"
	"github.com/coolchillgy/pay/src/services"
	"github.com/coolchillgy/pay/src/utils"
	"github.com/coolchillgy/pay/src/ws"
	"github.com/patrickmn/go-cache"
)

type CompanyHandler struct {
	authService *security.AuthService
	publisher   services.Publisher
	statsCache  *cache.Cache
}

func NewCompanyHandler(authService *security.AuthService, publisher services.Publisher, statsCache *cache.Cache) *CompanyHandler {
	return &CompanyHandler{
		authService: authService,
		publisher:   publisher,
		statsCache:  statsCache,
	}
}

// HandleCreateCompany registers a new company with a generated webhook
// API key. Admin only.
func (h *CompanyHandler) HandleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName   string  `json:"company_name"`
		LoginID       string  `json:"login_id"`
		Password      string  `json:"password"`
		BankName      string  `json:"bank_name"`
		AccountNumber string  `json:"account_number"`
		AccountHolder string  `json:"account_holder"`
		FeeRate       float64 `json:"fee_rate"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CompanyName == "" || req.LoginID == "" || req.Password == "" || req.AccountHolder == "" {
		utils.SendJSONError(w, "company_name, login_id, password and account_holder are required", http.StatusBadRequest)
		return
	}
	if req.FeeRate <= 0 {
		req.FeeRate = config.Cfg.DefaultFeeRate
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		utils.SendJSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	apiKey, err := h.authService.GenerateAPIKey()
	if err != nil {
		utils.SendJSONError(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	company := &model.Company{
		CompanyName:   req.CompanyName,
		LoginID:       req.LoginID,
		Password:      passwordHash,
		APIKey:        apiKey,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		FeeRate:       req.FeeRate,
	}
	if err := model.CreateCompany(database.DB, company); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			utils.SendJSONError(w, "Login ID already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create company", "loginID", req.LoginID, "error", err)
		utils.SendJSONError(w, "Failed to create company", http.StatusInternalServerError)
		return
	}

	h.statsCache.Delete(services.DashboardCacheKey)

	h.publisher.Publish(ws.AdminChannel, services.NotificationEvent{
		Type: "company_created",
		Data: map[string]interface{}{
			"id":           company.ID,
			"company_name": company.CompanyName,
			"api_key":      company.APIKey,
		},
	})

	logger.L.Info("Company created", "companyID", company.ID, "companyName", company.CompanyName)

	utils.SendJSON(w, map[string]interface{}{
		"id":           company.ID,
		"company_name": company.CompanyName,
		"login_id":     company.LoginID,
		"api_key":      company.APIKey,
		"webhook_url":  fmt.Sprintf("%s/api/webhook/%s", config.Cfg.PublicBaseURL, company.APIKey),
		"created_at":   company.CreatedAt.Format(time.RFC3339),
	}, http.StatusCreated)
}

// HandleDashboard serves the admin overview: active company count,
// today's totals and per-company daily stats. Responses are cached
// briefly and invalidated on every ingest.
func (h *CompanyHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if cached, found := h.statsCache.Get(services.DashboardCacheKey); found {
		utils.SendJSON(w, cached, http.StatusOK)
		return
	}

	totalCompanies, err := model.CountActiveCompanies(database.DB)
	if err != nil {
		utils.SendJSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	totals, err := model.GetDailyTotals(database.DB)
	if err != nil {
		utils.SendJSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	companies, err := model.ListCompanyDailyStats(database.DB)
	if err != nil {
		utils.SendJSONError(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	dashboard := map[string]interface{}{
		"summary": map[string]interface{}{
			"total_companies":    totalCompanies,
			"total_deposits":     totals.TotalDeposits,
			"total_fees":         totals.TotalFees,
			"total_transactions": totals.TotalTransactions,
		},
		"companies": companies,
	}
	h.statsCache.Set(services.DashboardCacheKey, dashboard, cache.DefaultExpiration)

	utils.SendJSON(w, dashboard, http.StatusOK)
}

// HandleSetupGuide returns the relay-app configuration instructions for
// a company's webhook.
func (h *CompanyHandler) HandleSetupGuide(w http.ResponseWriter, r *http.Request) {
	apiKey := r.PathValue("apiKey")

	company, err := model.GetCompanyByAPIKey(database.DB, apiKey)
	if err != nil {
		utils.SendJSONError(w, "Invalid API key", http.StatusNotFound)
		return
	}

	webhookURL := fmt.Sprintf("%s/api/webhook/%s", config.Cfg.PublicBaseURL, apiKey)
	utils.SendJSON(w, map[string]interface{}{
		"app_name":     "문자자동전달",
		"company_name": company.CompanyName,
		"webhook_url":  webhookURL,
		"method":       "POST",
		"content_type": "application/json",
		"setup_steps": []string{
			"1. 문자자동전달 앱 설치 및 실행",
			"2. '전달설정' → '새 설정' 선택",
			"3. '전달 번호' → 'REST API 주소 입력' 선택",
			"4. URL 입력: " + webhookURL,
			"5. 필터 설정: '입금', '출금', '농협' 등 키워드 추가",
			"6. 저장 후 테스트 SMS 발송",
		},
		"expected_format": map[string]string{
			"date":    "2025.06.27 13:00:30",
			"from":    "***-****-****",
			"to":      "***-****-****",
			"message": "[Web발신]\n농협 출금700,000원\n06/27 13:00 302-****-5080-61 신주일 잔액307,006원",
		},
	}, http.StatusOK)
}
