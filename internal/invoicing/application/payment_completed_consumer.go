package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	billingDomain "github.com/nexthire/billing/internal/billing/domain"
	"github.com/nexthire/billing/internal/invoicing/domain"
	"github.com/nexthire/billing/internal/invoicing/infrastructure"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/eventbus"
	"github.com/nexthire/billing/pkg/observability"
)

// paymentCompletedPayload mirrors the payment completed event payload.
type paymentCompletedPayload struct {
	TransactionID    uuid.UUID `json:"transaction_id"`
	UserEmail        string    `json:"user_email"`
	TransactionType  string    `json:"transaction_type"`
	PlanName         string    `json:"plan_name"`
	CreditsPurchased int64     `json:"credits_purchased"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference"`
	CompletedAt      time.Time `json:"completed_at"`
}

// PaymentCompletedConsumer issues an invoice for every completed payment.
// Invoicing is fire-and-forget: delivery failures are logged and the event
// is acknowledged, never redelivered into the payment flow.
type PaymentCompletedConsumer struct {
	txRepo   billingDomain.TransactionRepository
	notifier infrastructure.Notifier
	metrics  observability.Metrics
	logger   *slog.Logger
}

// NewPaymentCompletedConsumer creates a new PaymentCompletedConsumer.
func NewPaymentCompletedConsumer(txRepo billingDomain.TransactionRepository, notifier infrastructure.Notifier, logger *slog.Logger) *PaymentCompletedConsumer {
	return &PaymentCompletedConsumer{
		txRepo:   txRepo,
		notifier: notifier,
		metrics:  observability.NoopMetrics{},
		logger:   logger,
	}
}

// WithMetrics sets the metrics sink used for invoice counters.
func (c *PaymentCompletedConsumer) WithMetrics(m observability.Metrics) *PaymentCompletedConsumer {
	if m != nil {
		c.metrics = m
	}
	return c
}

// EventTypes returns the routing keys this consumer handles.
func (c *PaymentCompletedConsumer) EventTypes() []string {
	return []string{billingDomain.PaymentCompletedRoutingKey}
}

// Handle issues the invoice and marks the transaction.
func (c *PaymentCompletedConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload paymentCompletedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Error("discarding malformed payment completed event",
			"event_id", event.EventID, "error", err)
		return nil
	}

	email, err := sharedDomain.NewEmail(payload.UserEmail)
	if err != nil {
		c.logger.Error("discarding payment completed event with invalid email",
			"event_id", event.EventID, "error", err)
		return nil
	}

	tx, err := c.txRepo.FindByIDAndEmail(ctx, payload.TransactionID, email)
	if err != nil {
		return fmt.Errorf("failed to load transaction for invoicing: %w", err)
	}
	if tx.InvoiceSent() {
		c.logger.Debug("invoice already sent", "transaction_id", tx.ID())
		return nil
	}

	invoice := domain.Invoice{
		InvoiceNumber:    domain.InvoiceNumberFor(payload.TransactionID),
		TransactionID:    payload.TransactionID,
		UserEmail:        payload.UserEmail,
		TransactionType:  payload.TransactionType,
		PlanName:         payload.PlanName,
		CreditsPurchased: payload.CreditsPurchased,
		Amount:           payload.Amount,
		Currency:         payload.Currency,
		PaymentReference: payload.PaymentReference,
		IssuedAt:         time.Now().UTC(),
	}

	if err := c.notifier.Send(ctx, invoice); err != nil {
		c.logger.Error("invoice delivery failed",
			"transaction_id", payload.TransactionID,
			"invoice_number", invoice.InvoiceNumber,
			"error", err)
		return nil
	}

	tx.MarkInvoiceSent(invoice.URL())
	if err := c.txRepo.MarkInvoiceSent(ctx, tx); err != nil {
		return fmt.Errorf("failed to mark invoice sent: %w", err)
	}

	c.metrics.Counter("billing.invoices.sent", 1,
		observability.T("type", payload.TransactionType))
	c.logger.Info("invoice issued",
		"transaction_id", payload.TransactionID,
		"invoice_number", invoice.InvoiceNumber)
	return nil
}
