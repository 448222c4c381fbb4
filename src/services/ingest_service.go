package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/parser"
	"github.com/coolchillgy/pay/src/processors"
	"github.com/coolchillgy/pay/src/ws"
	"github.com/patrickmn/go-cache"
)

// DashboardCacheKey is the stats cache entry invalidated on every
// successful ingestion.
const DashboardCacheKey = "admin_dashboard"

// ReasonParsingFailed is the soft-failure reason reported to the relay
// client when a message yields no usable transaction.
const ReasonParsingFailed = "parsing_failed"

// Publisher pushes an event to every live subscriber of a channel.
// Delivery is fire-and-forget; partial failure is never reported.
type Publisher interface {
	Publish(channel string, event interface{})
}

// WebhookPayload is the official body shape posted by the SMS relay app.
type WebhookPayload struct {
	Date    string `json:"date"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// IngestResult is the outcome of one webhook call. Accepted=false with a
// Reason is a soft failure (the message was unusable); hard failures are
// returned as errors instead.
type IngestResult struct {
	Accepted      bool
	TransactionID int64
	Reason        string
}

// NotificationEvent is the JSON object pushed to websocket subscribers.
type NotificationEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NotificationData is the transaction payload of a "new_transaction" event.
type NotificationData struct {
	ID              int64   `json:"id"`
	CompanyID       int64   `json:"company_id"`
	TransactionType string  `json:"transaction_type"`
	BankName        string  `json:"bank_name"`
	SenderName      string  `json:"sender_name"`
	Amount          float64 `json:"amount"`
	Balance         float64 `json:"balance"`
	FeeAmount       float64 `json:"fee_amount"`
	IsRolling       bool    `json:"is_rolling"`
	CreatedAt       string  `json:"created_at"`
}

// IngestService runs the ingestion pipeline for inbound SMS webhooks:
// resolve the API key, parse the message, classify it under the
// company's fee configuration, append the transaction and broadcast it
// to the admin channel and the company's own channel.
type IngestService struct {
	db         *sql.DB
	publisher  Publisher
	statsCache *cache.Cache
}

func NewIngestService(db *sql.DB, publisher Publisher, statsCache *cache.Cache) *IngestService {
	return &IngestService{
		db:         db,
		publisher:  publisher,
		statsCache: statsCache,
	}
}

// Ingest processes one inbound webhook call. It returns
// model.ErrCompanyNotFound when the API key does not resolve to an
// active company, a wrapped error when persisting fails, and a
// non-accepted result when the message is unusable. Nothing is
// persisted or published in any of those cases.
func (s *IngestService) Ingest(apiKey string, payload WebhookPayload) (*IngestResult, error) {
	company, err := model.GetActiveCompanyByAPIKey(s.db, apiKey)
	if err != nil {
		return nil, err
	}

	parsed := parser.Parse(payload.Message)
	if !parsed.Parsed || parsed.TransactionType == parser.TypeUnknown {
		logger.L.Warn("SMS parsing failed",
			"companyID", company.ID,
			"parsed", parsed.Parsed,
			"transactionType", string(parsed.TransactionType))
		return &IngestResult{Accepted: false, Reason: ReasonParsingFailed}, nil
	}

	settlement := processors.Classify(parsed, company.FeeRate, company.AccountHolder)

	tx := &model.Transaction{
		CompanyID:       company.ID,
		TransactionType: string(parsed.TransactionType),
		BankName:        parsed.BankName,
		SenderName:      parsed.SenderName,
		AccountNumber:   parsed.AccountNumber,
		Amount:          parsed.Amount,
		Balance:         parsed.Balance,
		FeeAmount:       settlement.FeeAmount,
		RawMessage:      payload.Message,
		IsRolling:       settlement.IsRolling,
	}
	if err := model.InsertTransaction(s.db, tx); err != nil {
		return nil, fmt.Errorf("persisting transaction for company %d: %w", company.ID, err)
	}

	if s.statsCache != nil {
		s.statsCache.Delete(DashboardCacheKey)
	}

	event := NotificationEvent{
		Type: "new_transaction",
		Data: NotificationData{
			ID:              tx.ID,
			CompanyID:       tx.CompanyID,
			TransactionType: tx.TransactionType,
			BankName:        tx.BankName,
			SenderName:      tx.SenderName,
			Amount:          tx.Amount,
			Balance:         tx.Balance,
			FeeAmount:       tx.FeeAmount,
			IsRolling:       tx.IsRolling,
			CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
		},
	}

	// Admin first, then the owning company. The order carries no
	// semantics but must stay deterministic.
	s.publisher.Publish(ws.AdminChannel, event)
	s.publisher.Publish(ws.CompanyChannel(company.ID), event)

	logger.L.Info("Transaction ingested",
		"transactionID", tx.ID,
		"companyID", company.ID,
		"type", tx.TransactionType,
		"amount", tx.Amount,
		"fee", tx.FeeAmount,
		"rolling", tx.IsRolling)

	return &IngestResult{Accepted: true, TransactionID: tx.ID}, nil
}
