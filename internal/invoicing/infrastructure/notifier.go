package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nexthire/billing/internal/invoicing/domain"
)

// Notifier delivers invoices to the external invoicing system.
type Notifier interface {
	Send(ctx context.Context, invoice domain.Invoice) error
}

// HTTPNotifier posts invoices to a configured endpoint. The call runs
// through a circuit breaker so a dead invoicing system cannot pile up
// worker goroutines on timeouts.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[struct{}]
	logger   *slog.Logger
}

// NewHTTPNotifier creates a notifier for the given endpoint.
func NewHTTPNotifier(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPNotifier {
	n := &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}

	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "invoice-notifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("invoice notifier circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return n
}

// Send posts the invoice. A non-2xx response counts as a failure.
func (n *HTTPNotifier) Send(ctx context.Context, invoice domain.Invoice) error {
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, invoice)
	})
	return err
}

func (n *HTTPNotifier) post(ctx context.Context, invoice domain.Invoice) error {
	body, err := json.Marshal(invoice)
	if err != nil {
		return fmt.Errorf("failed to encode invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build invoice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("invoice request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invoice endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier records invoices in the log instead of delivering them.
// Used when no invoice endpoint is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the invoice.
func (n *LogNotifier) Send(_ context.Context, invoice domain.Invoice) error {
	n.logger.Info("invoice issued",
		"invoice_number", invoice.InvoiceNumber,
		"transaction_id", invoice.TransactionID,
		"user_email", invoice.UserEmail,
		"amount", invoice.Amount,
		"currency", invoice.Currency,
	)
	return nil
}
