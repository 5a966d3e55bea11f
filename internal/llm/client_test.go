package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestNewClient_NilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewClient(Config{}, nil))
	assert.NotNil(t, NewClient(Config{APIKey: "k"}, nil))
}

func chatReply(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	require.NoError(t, err)
	return b
}

func TestParseInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		w.Write(chatReply(t, `{
			"due_date": "2025-11-21",
			"total": "685.70",
			"transactions": [
				{"date": "2025-11-03", "description": "FARMACIA SAO PAULO", "amount": "45.90", "type": "EXPENSE"},
				{"description": "MAGAZINELUZA", "amount": "189.90", "type": "EXPENSE", "installment_num": 2, "installment_total": 5},
				{"date": "2025-11-12", "description": "PAGAMENTO EFETUADO", "amount": "-1500.00", "type": "PAYMENT"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	inv, err := c.ParseInvoice(context.Background(), "texto da fatura")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Equal(t, "685.70", inv.Total.StringFixed(2))
	require.Len(t, inv.Transactions, 3)

	assert.Equal(t, 2, inv.Transactions[1].InstallmentNum)
	assert.Equal(t, 5, inv.Transactions[1].InstallmentTotal)
	assert.True(t, inv.Transactions[1].Date.IsZero(), "undated row stays undated")

	payment := inv.Transactions[2]
	assert.Equal(t, models.TypePayment, payment.Type)
	assert.Equal(t, "1500.00", payment.Amount.StringFixed(2), "payments are stored as positive amounts")
}

func TestParseInvoice_SchemaRejectsMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// type must be EXPENSE or PAYMENT.
		w.Write(chatReply(t, `{
			"due_date": "2025-11-21",
			"total": "100.00",
			"transactions": [{"description": "LOJA", "amount": "100.00", "type": "DEBIT"}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	_, err := c.ParseInvoice(context.Background(), "texto")
	require.Error(t, err)
}

func TestParseInvoice_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	_, err := c.ParseInvoice(context.Background(), "texto")
	require.Error(t, err)
}
