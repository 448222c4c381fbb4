package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
}

func (p *recordingPublisher) Publish(channel string, event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
}

func newWebhookTestServer(t *testing.T) (*http.ServeMux, *recordingPublisher) {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))

	company := &model.Company{
		CompanyName:   "테스트업체",
		LoginID:       "webhook-test",
		Password:      "not-a-real-hash",
		APIKey:        "valid-key",
		BankName:      "농협",
		AccountNumber: "302-1234-5678-91",
		AccountHolder: "신주일",
		FeeRate:       0.03,
	}
	require.NoError(t, model.CreateCompany(database.DB, company))

	publisher := &recordingPublisher{}
	handler := NewWebhookHandler(services.NewIngestService(database.DB, publisher, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/webhook/{apiKey}", handler.HandleWebhook)
	return mux, publisher
}

func postWebhook(t *testing.T, mux *http.ServeMux, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/"+apiKey, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhookSuccess(t *testing.T) {
	mux, publisher := newWebhookTestServer(t)

	body := `{"date":"2025.06.27 13:00:30","from":"15881111","to":"01012345678","message":"[Web발신]\n농협 출금700,000원\n06/27 13:00 302-****-5080-61 신주일 잔액307,006원"}`
	rec := postWebhook(t, mux, "valid-key", body)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.NotZero(t, resp["transaction_id"])

	assert.Equal(t, []string{"admin", "company_1"}, publisher.channels)
}

func TestWebhookParsingFailed(t *testing.T) {
	mux, publisher := newWebhookTestServer(t)

	rec := postWebhook(t, mux, "valid-key", `{"message":"농협 700,000원"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp["status"])
	assert.Equal(t, "parsing_failed", resp["reason"])
	assert.Empty(t, publisher.channels)
}

func TestWebhookUnknownAPIKey(t *testing.T) {
	mux, publisher := newWebhookTestServer(t)

	rec := postWebhook(t, mux, "wrong-key", `{"message":"농협 입금10,000원"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, publisher.channels)
}

func TestWebhookInvalidBody(t *testing.T) {
	mux, _ := newWebhookTestServer(t)

	rec := postWebhook(t, mux, "valid-key", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
