package docextract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/invoice-extractor/internal/common"
)

func TestClient_Available(t *testing.T) {
	assert.False(t, NewClient(Config{}, nil).Available())
	assert.False(t, NewClient(Config{URL: "http://localhost"}, nil).Available())
	assert.False(t, NewClient(Config{APIKey: "k"}, nil).Available())
	assert.True(t, NewClient(Config{URL: "http://localhost", APIKey: "k"}, nil).Available())
}

func TestClient_ExtractNotConfigured(t *testing.T) {
	_, err := NewClient(Config{}, nil).Extract(context.Background(), []byte("doc"))
	require.ErrorIs(t, err, common.ErrExternalUnavailable)
}

func TestClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"text":"Fatura do cartao\n03/11 LOJA 100,00"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret"}, nil)
	text, err := c.Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Contains(t, text, "Fatura do cartao")
}

func TestClient_ExtractRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"text":"recuperado"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret", MaxRetries: 3}, nil)
	text, err := c.Extract(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "recuperado", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ExtractDoesNotRetryRejection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "wrong", MaxRetries: 3}, nil)
	_, err := c.Extract(context.Background(), []byte("%PDF"))
	require.ErrorIs(t, err, common.ErrExternalUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx rejections must not be retried")
}

func TestClient_ExtractEmptyTextFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret"}, nil)
	_, err := c.Extract(context.Background(), []byte("%PDF"))
	require.Error(t, err)
}
