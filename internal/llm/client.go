// Package llm is the remote structured-extraction collaborator used by
// document-aware parser strategies. It sends the invoice text to an
// OpenAI-compatible chat-completions endpoint with a strict JSON-Schema
// contract and converts the validated reply into the shared invoice model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Config configures the collaborator.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat-completions API. An empty API
// key leaves the client unavailable; strategies treat that as "no
// collaborator configured" and fall back to pattern extraction.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client with defaults filled in. Returns nil when no
// API key is configured, so callers can wire the nil straight into the
// strategies that accept an optional collaborator.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

const systemPrompt = "You are a Brazilian credit-card invoice parser. " +
	"Return ONLY JSON matching the provided JSON Schema. " +
	"Use ISO-8601 dates (YYYY-MM-DD) and decimal amounts with a dot separator. " +
	"Mark payments of a previous invoice as type PAYMENT with a positive amount; everything else is EXPENSE. " +
	"Rows under future-installment sections (proximas faturas, lancamentos futuros) must be excluded. " +
	"Installment markers like '02/05' mean installment 2 of 5. " +
	"Never output null. If a field is not present, omit it."

// wire types for the model's reply.
type invoiceReply struct {
	DueDate      string    `json:"due_date"`
	Total        string    `json:"total"`
	Transactions []txReply `json:"transactions"`
}

type txReply struct {
	Date             string `json:"date"`
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	InstallmentNum   int    `json:"installment_num"`
	InstallmentTotal int    `json:"installment_total"`
	CardName         string `json:"card_name"`
	HolderName       string `json:"holder_name"`
}

// ParseInvoice extracts the invoice's structure from its text in one model
// call. The reply is schema-validated before conversion.
func (c *Client) ParseInvoice(ctx context.Context, text string) (*models.StructuredInvoice, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.parse.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	schema := invoiceJSONSchema()
	user := "Invoice text:\n" + truncate(text, 12000)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.logger.Error("llm.parse.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := validateAgainstSchema(schema, content); err != nil {
		c.logger.Error("llm.parse.schema_validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var reply invoiceReply
	if err := json.Unmarshal(content, &reply); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	inv, err := reply.toModel()
	if err != nil {
		return nil, err
	}
	c.logger.Info("llm.parse.ok", "req_id", rid,
		"due_date", reply.DueDate, "total", reply.Total,
		"transactions", len(inv.Transactions),
		"elapsed_ms", time.Since(start).Milliseconds())
	return inv, nil
}

func (r *invoiceReply) toModel() (*models.StructuredInvoice, error) {
	due, err := time.Parse("2006-01-02", r.DueDate)
	if err != nil {
		return nil, fmt.Errorf("parse due date %q: %w", r.DueDate, err)
	}
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", r.Total, err)
	}

	inv := &models.StructuredInvoice{DueDate: due, Total: total}
	for _, t := range r.Transactions {
		amt, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", t.Amount, err)
		}
		tx := models.Transaction{
			Description:      t.Description,
			Amount:           amt,
			Type:             models.TxType(t.Type),
			CardName:         t.CardName,
			HolderName:       t.HolderName,
			InstallmentNum:   t.InstallmentNum,
			InstallmentTotal: t.InstallmentTotal,
		}
		if t.Date != "" {
			if d, err := time.Parse("2006-01-02", t.Date); err == nil {
				tx.Date = d
			}
		}
		if tx.Type == models.TypePayment {
			tx.Amount = tx.Amount.Abs()
		}
		inv.Transactions = append(inv.Transactions, tx)
	}
	return inv, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
