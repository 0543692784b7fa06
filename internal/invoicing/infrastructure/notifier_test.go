package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexthire/billing/internal/invoicing/domain"
)

func testInvoice() domain.Invoice {
	id := uuid.New()
	return domain.Invoice{
		InvoiceNumber:    domain.InvoiceNumberFor(id),
		TransactionID:    id,
		UserEmail:        "buyer@example.com",
		TransactionType:  "credits",
		CreditsPurchased: 30,
		Amount:           1699,
		Currency:         "INR",
		PaymentReference: "pay_ref",
		IssuedAt:         time.Now().UTC(),
	}
}

func TestHTTPNotifier_Send(t *testing.T) {
	t.Run("posts the invoice as JSON", func(t *testing.T) {
		var received domain.Invoice
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		notifier := NewHTTPNotifier(server.URL, time.Second, slog.Default())
		invoice := testInvoice()

		require.NoError(t, notifier.Send(context.Background(), invoice))
		assert.Equal(t, invoice.InvoiceNumber, received.InvoiceNumber)
		assert.Equal(t, invoice.TransactionID, received.TransactionID)
		assert.Equal(t, invoice.Amount, received.Amount)
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		notifier := NewHTTPNotifier(server.URL, time.Second, slog.Default())

		err := notifier.Send(context.Background(), testInvoice())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("circuit opens after repeated failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		notifier := NewHTTPNotifier(server.URL, time.Second, slog.Default())
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			require.Error(t, notifier.Send(ctx, testInvoice()))
		}

		// The breaker is open now; requests fail without reaching the server.
		hits := 0
		server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusOK)
		})

		require.Error(t, notifier.Send(ctx, testInvoice()))
		assert.Zero(t, hits)
	})
}

func TestLogNotifier_Send(t *testing.T) {
	notifier := NewLogNotifier(slog.Default())
	require.NoError(t, notifier.Send(context.Background(), testInvoice()))
}
