package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/services"
	"github.com/coolchillgy/pay/src/utils"
	"github.com/google/uuid"
)

type WebhookHandler struct {
	ingestService *services.IngestService
}

func NewWebhookHandler(ingestService *services.IngestService) *WebhookHandler {
	return &WebhookHandler{
		ingestService: ingestService,
	}
}

// HandleWebhook receives a forwarded bank SMS from the relay app and
// runs it through the ingestion pipeline.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	apiKey := r.PathValue("apiKey")

	var payload services.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.L.Warn("Webhook body decode failed", "requestID", requestID, "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.ingestService.Ingest(apiKey, payload)
	if err != nil {
		if errors.Is(err, model.ErrCompanyNotFound) {
			logger.L.Warn("Webhook called with unknown API key", "requestID", requestID)
			utils.SendJSONError(w, "Invalid API key", http.StatusNotFound)
			return
		}
		logger.L.Error("Webhook ingestion failed", "requestID", requestID, "error", err)
		utils.SendJSONError(w, "Failed to process transaction", http.StatusInternalServerError)
		return
	}

	if !result.Accepted {
		utils.SendJSON(w, map[string]interface{}{
			"status": "failed",
			"reason": result.Reason,
		}, http.StatusOK)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"status":         "success",
		"transaction_id": result.TransactionID,
	}, http.StatusOK)
}
